package trigger

import (
	"log/slog"

	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
)

// CallMeLaterTriggerNodeFactory creates CallMeLaterTriggerNode instances.
type CallMeLaterTriggerNodeFactory struct{}

// NewCallMeLaterTriggerNodeFactory creates a new CallMeLater trigger node factory.
func NewCallMeLaterTriggerNodeFactory() protocol.TriggerNodeFactory {
	return &CallMeLaterTriggerNodeFactory{}
}

// Create creates a new CallMeLaterTriggerNode instance.
func (f *CallMeLaterTriggerNodeFactory) Create(config map[string]any, logger *slog.Logger) (protocol.WebhookTrigger, error) {
	return NewCallMeLaterTriggerNode(config, logger)
}

// ID returns the factory ID.
func (f *CallMeLaterTriggerNodeFactory) ID() string {
	return models.NodeTypeTriggerCallMeLater
}

// Name returns the factory name.
func (f *CallMeLaterTriggerNodeFactory) Name() string {
	return "CallMeLater Trigger"
}

// Description returns the factory description.
func (f *CallMeLaterTriggerNodeFactory) Description() string {
	return "Starts the workflow when CallMeLater sends a webhook (approval responses, action executed or failed)"
}

func (f *CallMeLaterTriggerNodeFactory) Category() models.CategoryType {
	return models.CategoryTypeTrigger
}

// Schema returns the JSON schema for CallMeLater trigger node configuration.
func (f *CallMeLaterTriggerNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"event": map[string]any{
				"type":        "string",
				"description": "Only forward callbacks of this event type",
				"default":     models.EventAny,
				"enum": []string{
					models.EventAny,
					models.EventReminderResponded,
					models.EventActionExecuted,
					models.EventActionFailed,
					models.EventActionExpired,
				},
			},
			"webhookSecret": map[string]any{
				"type":        "string",
				"description": "Shared secret used to verify the x-callmelater-signature header. Leave empty to accept unsigned callbacks",
			},
		},
		"examples": []map[string]any{
			{"event": models.EventAny},
			{"event": models.EventReminderResponded, "webhookSecret": "whsec_example"},
		},
	}
}
