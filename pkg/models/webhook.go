package models

import "strings"

// Event types emitted by CallMeLater callbacks.
const (
	EventAny               = "any"
	EventReminderResponded = "reminder.responded"
	EventActionExecuted    = "action.executed"
	EventActionFailed      = "action.failed"
	EventActionExpired     = "action.expired"
)

const (
	SignatureHeader = "x-callmelater-signature"
	SignaturePrefix = "sha256="
	RawPayloadKey   = "_raw"
)

// WebhookEventFields are always carried over into the reshaped event.
var WebhookEventFields = []string{"event", "action_id", "action_name", "timestamp"}

// WebhookOptionalFields are copied only when the payload carries them.
var WebhookOptionalFields = []string{
	"response",
	"responder_email",
	"responded_at",
	"snooze_preset",
	"next_reminder_at",
	"action_status",
	"comment",
}

// WebhookRequest is the transport-independent view of an inbound callback.
type WebhookRequest struct {
	Headers map[string]string
	Body    []byte
}

// Header returns a header value using case-insensitive lookup.
func (r WebhookRequest) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}

	for key, value := range r.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}

	return ""
}

// WebhookResponse is the acknowledgement returned to the sender.
type WebhookResponse struct {
	Status int            `json:"status"`
	Body   map[string]any `json:"body"`
}
