// Package callmelater provides the CallMeLater action node: it schedules
// delayed webhooks and approval requests and reads or cancels existing actions.
package callmelater

import (
	"context"
	"fmt"
	"log/slog"

	api "github.com/callmelater/operion-callmelater/pkg/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/otelhelper"
	"github.com/callmelater/operion-callmelater/pkg/parameters"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/callmelater/operion-callmelater/pkg/nodes/callmelater"

// Node sends one API request per input item, strictly in input order.
type Node struct {
	client   protocol.HTTPClient
	defaults map[string]any
	validate *validator.Validate
	tracer   trace.Tracer
}

var _ protocol.ActionNode = (*Node)(nil)

type NodeOption func(*Node)

func WithTracer(tracer trace.Tracer) NodeOption {
	return func(n *Node) {
		n.tracer = tracer
	}
}

// NewNode creates a node. defaults supply parameter values the host does not set.
func NewNode(client protocol.HTTPClient, defaults map[string]any, opts ...NodeOption) *Node {
	if defaults == nil {
		defaults = map[string]any{}
	}

	n := &Node{
		client:   client,
		defaults: defaults,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Operation returns the operation item i runs once node defaults are applied,
// or "" when none is set.
func (n *Node) Operation(params protocol.ParameterSource, i int) string {
	operation, err := parameters.String(withDefaults(params, n.defaults), "operation", i, "")
	if err != nil {
		return ""
	}

	return operation
}

// Execute returns one item per input item. When executionCtx.ContinueOnFail is
// set a failing item yields {"error": message} and the batch carries on;
// otherwise the first failure aborts the batch.
func (n *Node) Execute(
	ctx context.Context,
	executionCtx models.ExecutionContext,
	params protocol.ParameterSource,
	logger *slog.Logger,
) ([]models.Item, error) {
	params = withDefaults(params, n.defaults)
	count := params.ItemCount()
	items := make([]models.Item, 0, count)

	logger.InfoContext(ctx, "executing callmelater node",
		"execution_id", executionCtx.ID,
		"node_id", executionCtx.NodeID,
		"items", count,
	)

	for i := range count {
		data, err := n.executeItem(ctx, executionCtx, params, i)
		if err != nil {
			if !executionCtx.ContinueOnFail {
				logger.ErrorContext(ctx, "callmelater item failed", "item", i, "error", err)

				return nil, fmt.Errorf("item %d: %w", i, err)
			}

			logger.WarnContext(ctx, "callmelater item failed, continuing", "item", i, "error", err)
			items = append(items, models.ErrorItem(err))

			continue
		}

		items = append(items, models.NewItem(data))
	}

	return items, nil
}

func (n *Node) executeItem(
	ctx context.Context,
	executionCtx models.ExecutionContext,
	params protocol.ParameterSource,
	i int,
) (map[string]any, error) {
	resource, err := requiredString(params, "resource", i)
	if err != nil {
		return nil, err
	}

	operationName, err := requiredString(params, "operation", i)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "callmelater.execute",
		attribute.String(otelhelper.NodeTypeKey, models.NodeTypeCallMeLater),
		attribute.String(otelhelper.ExecutionIDKey, executionCtx.ID),
		attribute.String(otelhelper.ResourceKey, resource),
		attribute.String(otelhelper.OperationKey, operationName),
		attribute.Int(otelhelper.ItemIndexKey, i),
	)
	defer span.End()

	if resource != ResourceAction {
		err := &OperationError{Resource: resource}
		otelhelper.SetError(span, err)

		return nil, err
	}

	op, ok := operations[operationName]
	if !ok {
		err := &OperationError{Resource: resource, Operation: operationName}
		otelhelper.SetError(span, err)

		return nil, err
	}

	data, err := op(ctx, n, params, i)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return data, nil
}

func (n *Node) create(ctx context.Context, action models.ScheduledAction) (map[string]any, error) {
	if err := n.validate.Struct(action); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}

	resp, err := api.CreateAction(ctx, n.client, action)
	if err != nil {
		return nil, err
	}

	return api.Data(resp), nil
}

type defaultedParameters struct {
	protocol.ParameterSource

	defaults map[string]any
}

func withDefaults(params protocol.ParameterSource, defaults map[string]any) protocol.ParameterSource {
	return &defaultedParameters{ParameterSource: params, defaults: defaults}
}

func (p *defaultedParameters) Parameter(name string, itemIndex int) (any, bool) {
	if v, ok := p.ParameterSource.Parameter(name, itemIndex); ok {
		return v, true
	}

	v, ok := p.defaults[name]
	if !ok || v == nil {
		return nil, false
	}

	return v, true
}
