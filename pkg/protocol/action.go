package protocol

import (
	"context"
	"log/slog"

	"github.com/callmelater/operion-callmelater/pkg/models"
)

// ActionNode processes a batch of input items and returns one output item per input.
type ActionNode interface {
	Execute(
		ctx context.Context,
		executionCtx models.ExecutionContext,
		params ParameterSource,
		logger *slog.Logger,
	) ([]models.Item, error)
}

type ActionNodeFactory interface {
	NodeFactory
	Create(config map[string]any, client HTTPClient) (ActionNode, error)
}
