package protocol

import (
	"context"
	"log/slog"

	"github.com/callmelater/operion-callmelater/pkg/models"
)

// TriggerCallback receives the items a trigger forwards downstream.
type TriggerCallback func(ctx context.Context, items []models.Item) error

// WebhookTrigger handles one inbound HTTP callback per call.
type WebhookTrigger interface {
	Webhook(ctx context.Context, req models.WebhookRequest, callback TriggerCallback) (models.WebhookResponse, error)
}

// WebhookLifecycle is implemented by triggers that register their endpoint remotely.
type WebhookLifecycle interface {
	CheckExists(ctx context.Context) (bool, error)
	Create(ctx context.Context) (bool, error)
	Delete(ctx context.Context) (bool, error)
}

type TriggerNodeFactory interface {
	NodeFactory
	Create(config map[string]any, logger *slog.Logger) (WebhookTrigger, error)
}
