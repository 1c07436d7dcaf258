// Package trigger provides the CallMeLater trigger node, which authenticates,
// filters and reshapes callback webhooks sent by CallMeLater.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidPayload = errors.New("Invalid JSON payload")

// CallMeLaterTriggerConfig defines the configuration for CallMeLater trigger nodes.
type CallMeLaterTriggerConfig struct {
	Event         string `json:"event"          validate:"oneof=any reminder.responded action.executed action.failed action.expired"`
	WebhookSecret string `json:"webhookSecret"`
}

// CallMeLaterTriggerNode handles inbound callbacks. It keeps no state between calls.
type CallMeLaterTriggerNode struct {
	config CallMeLaterTriggerConfig
	logger *slog.Logger
}

var (
	_ protocol.WebhookTrigger   = (*CallMeLaterTriggerNode)(nil)
	_ protocol.WebhookLifecycle = (*CallMeLaterTriggerNode)(nil)
)

// NewCallMeLaterTriggerNode creates a trigger node from its configuration.
func NewCallMeLaterTriggerNode(config map[string]any, logger *slog.Logger) (*CallMeLaterTriggerNode, error) {
	triggerConfig := CallMeLaterTriggerConfig{
		Event: models.EventAny,
	}

	if event, ok := config["event"].(string); ok && event != "" {
		triggerConfig.Event = event
	}

	if secret, ok := config["webhookSecret"].(string); ok {
		triggerConfig.WebhookSecret = secret
	}

	if err := validator.New().Struct(triggerConfig); err != nil {
		return nil, fmt.Errorf("invalid trigger configuration: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &CallMeLaterTriggerNode{
		config: triggerConfig,
		logger: logger.With("module", "callmelater_trigger", "event_filter", triggerConfig.Event),
	}, nil
}

// Webhook authenticates req, applies the event filter and hands the reshaped
// event to callback. Rejections are reported through the response, not the error;
// an error means the callback failed.
func (n *CallMeLaterTriggerNode) Webhook(
	ctx context.Context,
	req models.WebhookRequest,
	callback protocol.TriggerCallback,
) (models.WebhookResponse, error) {
	if n.config.WebhookSecret != "" {
		if err := VerifySignature(n.config.WebhookSecret, req.Body, req.Header(models.SignatureHeader)); err != nil {
			n.logger.WarnContext(ctx, "rejected callmelater webhook", "reason", err.Error())

			return errorResponse(http.StatusUnauthorized, err), nil
		}
	}

	payload, err := decodePayload(req.Body)
	if err != nil {
		n.logger.WarnContext(ctx, "rejected callmelater webhook", "reason", err.Error())

		return errorResponse(http.StatusBadRequest, ErrInvalidPayload), nil
	}

	eventType, _ := payload["event"].(string)

	if n.config.Event != models.EventAny && eventType != n.config.Event {
		n.logger.DebugContext(ctx, "filtered callmelater webhook", "event", eventType)

		return models.WebhookResponse{
			Status: http.StatusOK,
			Body:   map[string]any{"received": true, "filtered": true},
		}, nil
	}

	if err := callback(ctx, []models.Item{models.NewItem(Reshape(payload))}); err != nil {
		return models.WebhookResponse{}, fmt.Errorf("failed to forward callmelater event: %w", err)
	}

	n.logger.InfoContext(ctx, "forwarded callmelater webhook",
		"event", eventType,
		"action_id", payload["action_id"],
	)

	return models.WebhookResponse{
		Status: http.StatusOK,
		Body:   map[string]any{"received": true},
	}, nil
}

// Reshape copies the identifying fields, the optional fields that carry a value,
// and the whole payload under "_raw". Zero values such as 0, "" and false count
// as present; only missing keys and JSON null are skipped.
func Reshape(payload map[string]any) map[string]any {
	out := make(map[string]any, len(models.WebhookEventFields)+len(models.WebhookOptionalFields)+1)

	for _, field := range models.WebhookEventFields {
		if v, ok := payload[field]; ok {
			out[field] = v
		}
	}

	for _, field := range models.WebhookOptionalFields {
		if v, ok := payload[field]; ok && v != nil {
			out[field] = v
		}
	}

	out[models.RawPayloadKey] = payload

	return out
}

// CheckExists always reports true: CallMeLater is pointed at the endpoint by
// hand, so there is nothing to register remotely.
func (n *CallMeLaterTriggerNode) CheckExists(context.Context) (bool, error) {
	return true, nil
}

func (n *CallMeLaterTriggerNode) Create(context.Context) (bool, error) {
	return true, nil
}

func (n *CallMeLaterTriggerNode) Delete(context.Context) (bool, error) {
	return true, nil
}

func decodePayload(body []byte) (map[string]any, error) {
	payload := map[string]any{}

	if len(bytes.TrimSpace(body)) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	if payload == nil {
		return map[string]any{}, nil
	}

	return payload, nil
}

func errorResponse(status int, err error) models.WebhookResponse {
	return models.WebhookResponse{
		Status: status,
		Body:   map[string]any{"error": err.Error()},
	}
}
