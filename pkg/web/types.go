// Package web provides the HTTP handlers through which the host drives the CallMeLater nodes.
package web

import (
	"errors"

	"github.com/callmelater/operion-callmelater/pkg/models"
)

// ExecuteRequest runs the action node once over a batch of items.
// Item values override parameters of the same name for that item.
type ExecuteRequest struct {
	ExecutionID    string           `json:"execution_id,omitempty" validate:"omitempty,max=128"`
	Parameters     map[string]any   `json:"parameters"             validate:"required"`
	Items          []map[string]any `json:"items"                  validate:"max=1000"`
	ContinueOnFail bool             `json:"continue_on_fail"`
}

// ExecuteResponse has one output item per input item, in input order.
type ExecuteResponse struct {
	ExecutionID string        `json:"execution_id"`
	Items       []models.Item `json:"items"`
}

// errNoCredentials is returned when the host runs without an API token.
var errNoCredentials = errors.New("callmelater credentials are not configured")

// webhookErrorBody is returned when a forwarded event cannot be delivered.
var webhookErrorBody = map[string]any{"error": "Error processing webhook"}
