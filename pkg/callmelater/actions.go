package callmelater

import (
	"context"
	"net/http"
	"net/url"

	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
)

// ActionPath is the resource path of one scheduled action.
func ActionPath(actionID string) string {
	return ActionsPath + "/" + url.PathEscape(actionID)
}

// CreateAction posts a new scheduled action and returns the full response envelope.
func CreateAction(ctx context.Context, client protocol.HTTPClient, action models.ScheduledAction) (map[string]any, error) {
	return client.Request(ctx, http.MethodPost, ActionsPath, action)
}

func GetAction(ctx context.Context, client protocol.HTTPClient, actionID string) (map[string]any, error) {
	return client.Request(ctx, http.MethodGet, ActionPath(actionID), nil)
}

func CancelAction(ctx context.Context, client protocol.HTTPClient, actionID string) (map[string]any, error) {
	return client.Request(ctx, http.MethodDelete, ActionPath(actionID), nil)
}

// Data extracts the "data" member of a response envelope. A missing or
// non-object member yields nil, which callers turn into an empty item.
func Data(envelope map[string]any) map[string]any {
	data, _ := envelope["data"].(map[string]any)

	return data
}
