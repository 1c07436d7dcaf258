package web

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/callmelater/operion-callmelater/pkg/config"
	"github.com/callmelater/operion-callmelater/pkg/eventbus"
	"github.com/callmelater/operion-callmelater/pkg/events"
	"github.com/callmelater/operion-callmelater/pkg/models"
	"github.com/callmelater/operion-callmelater/pkg/otelhelper"
	"github.com/callmelater/operion-callmelater/pkg/parameters"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"github.com/callmelater/operion-callmelater/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/callmelater/operion-callmelater/pkg/web"

type APIHandlers struct {
	logger         *slog.Logger
	registry       *registry.Registry
	client         protocol.HTTPClient
	publisher      eventbus.EventPublisher
	validator      *validator.Validate
	actionDefaults map[string]any
	triggers       map[string]protocol.WebhookTrigger
	tracer         trace.Tracer
}

type Option func(*APIHandlers)

func WithTracer(tracer trace.Tracer) Option {
	return func(h *APIHandlers) {
		h.tracer = tracer
	}
}

// operationResolver is implemented by action nodes that can report which
// operation an item runs after their defaults are applied.
type operationResolver interface {
	Operation(params protocol.ParameterSource, itemIndex int) string
}

// NewAPIHandlers creates one trigger node per configured endpoint up front so
// that a bad trigger configuration fails at startup rather than on first delivery.
func NewAPIHandlers(
	logger *slog.Logger,
	registry *registry.Registry,
	client protocol.HTTPClient,
	publisher eventbus.EventPublisher,
	validator *validator.Validate,
	cfg *config.Config,
	opts ...Option,
) (*APIHandlers, error) {
	triggers := make(map[string]protocol.WebhookTrigger, len(cfg.Triggers))

	for _, t := range cfg.Triggers {
		node, err := registry.CreateTrigger(models.NodeTypeTriggerCallMeLater, t.NodeConfig())
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", t.ID, err)
		}

		triggers[t.ID] = node
	}

	h := &APIHandlers{
		logger:         logger,
		registry:       registry,
		client:         client,
		publisher:      publisher,
		validator:      validator,
		actionDefaults: cfg.Action.Defaults,
		triggers:       triggers,
		tracer:         otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// ExecuteAction runs the CallMeLater action node over the request items.
func (h *APIHandlers) ExecuteAction(c fiber.Ctx) error {
	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if h.client == nil {
		return handleNodeError(c, errNoCredentials)
	}

	node, err := h.registry.CreateAction(models.NodeTypeCallMeLater, h.actionDefaults, h.client)
	if err != nil {
		return handleNodeError(c, err)
	}

	executionCtx := models.ExecutionContext{
		ID:             req.ExecutionID,
		NodeID:         models.NodeTypeCallMeLater,
		ContinueOnFail: req.ContinueOnFail,
	}
	if executionCtx.ID == "" {
		executionCtx.ID = uuid.NewString()
	}

	logger := h.logger.With("execution_id", executionCtx.ID)

	params := &parameters.Static{Node: req.Parameters, Items: req.Items}

	items, err := node.Execute(c.Context(), executionCtx, params, logger)
	if err != nil {
		return handleNodeError(c, err)
	}

	h.publishExecuted(c.Context(), executionCtx.ID, resolveOperation(node, params), items, logger)

	return c.JSON(ExecuteResponse{
		ExecutionID: executionCtx.ID,
		Items:       items,
	})
}

// resolveOperation names the operation the batch ran. Batches whose items run
// different operations report them comma-separated in first-seen order.
func resolveOperation(node protocol.ActionNode, params protocol.ParameterSource) string {
	resolver, ok := node.(operationResolver)
	if !ok {
		return ""
	}

	var seen []string

	for i := range params.ItemCount() {
		if op := resolver.Operation(params, i); op != "" && !slices.Contains(seen, op) {
			seen = append(seen, op)
		}
	}

	return strings.Join(seen, ",")
}

func (h *APIHandlers) publishExecuted(ctx context.Context, executionID, operation string, items []models.Item, logger *slog.Logger) {
	failed := 0

	for _, item := range items {
		if _, ok := item.JSON["error"]; ok && len(item.JSON) == 1 {
			failed++
		}
	}

	event := events.ActionExecuted{
		BaseEvent:   events.NewBaseEvent(events.ActionExecutedType),
		ExecutionID: executionID,
		Operation:   operation,
		Items:       len(items),
		Failed:      failed,
	}

	if err := h.publisher.Publish(ctx, executionID, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish action executed event", "error", err)
	}
}

// ReceiveWebhook passes an inbound CallMeLater callback to the trigger node
// registered for :triggerId and forwards the resulting items to the event bus.
func (h *APIHandlers) ReceiveWebhook(c fiber.Ctx) error {
	triggerID := c.Params("triggerId")

	node, ok := h.triggers[triggerID]
	if !ok {
		return notFound(c, "trigger not found")
	}

	headers := make(map[string]string)
	for key, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	req := models.WebhookRequest{
		Headers: headers,
		Body:    bytes.Clone(c.Body()),
	}

	logger := h.logger.With("trigger_id", triggerID)

	ctx, span := otelhelper.StartSpan(c.Context(), h.tracer, "callmelater.webhook",
		attribute.String(otelhelper.TriggerIDKey, triggerID),
	)
	defer span.End()

	resp, err := node.Webhook(ctx, req, func(ctx context.Context, items []models.Item) error {
		for _, item := range items {
			event := events.NewCallMeLaterEventReceived(triggerID, item.JSON)
			span.SetAttributes(attribute.String(otelhelper.EventTypeKey, event.Event))

			if err := h.publisher.Publish(ctx, triggerID, event); err != nil {
				return err
			}

			span.AddEvent("event.published", trace.WithAttributes(
				attribute.String(otelhelper.EventIDKey, event.ID),
				attribute.String(otelhelper.EventTypeKey, event.Event),
			))
			logger.InfoContext(ctx, "Published callmelater event", "event_id", event.ID, "event", event.Event)
		}

		return nil
	})
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.TriggerIDKey, triggerID))
		logger.ErrorContext(ctx, "Error processing webhook", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(webhookErrorBody)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))

	return c.Status(resp.Status).JSON(resp.Body)
}

// ListNodes returns the registered node factories with their schemas.
func (h *APIHandlers) ListNodes(c fiber.Ctx) error {
	return c.JSON(h.registry.Descriptors())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":      "healthy",
		"message":     "CallMeLater host is healthy",
		"triggers":    len(h.triggers),
		"credentials": h.client != nil,
		"timestamp":   time.Now().UTC(),
	})
}

// EnsureTriggers registers every trigger that manages a remote webhook.
func (h *APIHandlers) EnsureTriggers(ctx context.Context) error {
	for id, node := range h.triggers {
		lifecycle, ok := node.(protocol.WebhookLifecycle)
		if !ok {
			continue
		}

		exists, err := lifecycle.CheckExists(ctx)
		if err != nil {
			return fmt.Errorf("trigger %q: %w", id, err)
		}

		if exists {
			continue
		}

		if _, err := lifecycle.Create(ctx); err != nil {
			return fmt.Errorf("trigger %q: %w", id, err)
		}

		h.logger.InfoContext(ctx, "Registered trigger webhook", "trigger_id", id)
	}

	return nil
}

// ReleaseTriggers removes remote webhook registrations on shutdown.
func (h *APIHandlers) ReleaseTriggers(ctx context.Context) {
	for id, node := range h.triggers {
		lifecycle, ok := node.(protocol.WebhookLifecycle)
		if !ok {
			continue
		}

		if _, err := lifecycle.Delete(ctx); err != nil {
			h.logger.ErrorContext(ctx, "Failed to release trigger webhook", "trigger_id", id, "error", err)
		}
	}
}
