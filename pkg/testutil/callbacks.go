// Package testutil provides test data builders for CallMeLater callbacks.
package testutil

import (
	"encoding/json"

	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/nodes/trigger"
)

// CreateCallbackPayload creates an action.executed callback body that can be overridden.
func CreateCallbackPayload(overrides ...func(map[string]any)) map[string]any {
	payload := map[string]any{
		"event":         models.EventActionExecuted,
		"action_id":     "act_test",
		"action_name":   "Test Action",
		"timestamp":     "2025-02-15T14:30:00Z",
		"action_status": "executed",
	}

	for _, override := range overrides {
		override(payload)
	}

	return payload
}

// WithEvent sets the callback event type.
func WithEvent(event string) func(map[string]any) {
	return func(p map[string]any) {
		p["event"] = event
	}
}

// WithActionID sets the callback action id.
func WithActionID(id string) func(map[string]any) {
	return func(p map[string]any) {
		p["action_id"] = id
	}
}

// WithResponse turns the payload into a reminder.responded callback.
func WithResponse(response, email string) func(map[string]any) {
	return func(p map[string]any) {
		p["event"] = models.EventReminderResponded
		p["response"] = response
		p["responder_email"] = email
		p["responded_at"] = "2025-02-15T14:35:00Z"
		delete(p, "action_status")
	}
}

// WithField sets an arbitrary top-level field. A nil value is kept as JSON null.
func WithField(name string, value any) func(map[string]any) {
	return func(p map[string]any) {
		p[name] = value
	}
}

// Marshal encodes a payload; it panics on values json cannot encode.
func Marshal(payload map[string]any) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	return body
}

// SignedRequest builds a webhook request carrying a valid signature for secret.
func SignedRequest(secret string, body []byte) models.WebhookRequest {
	return models.WebhookRequest{
		Headers: map[string]string{models.SignatureHeader: trigger.Sign(secret, body)},
		Body:    body,
	}
}
