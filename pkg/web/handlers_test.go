package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	api "github.com/callmelater/operion-callmelater/pkg/callmelater"
	"github.com/callmelater/operion-callmelater/pkg/config"
	"github.com/callmelater/operion-callmelater/pkg/eventbus"
	"github.com/callmelater/operion-callmelater/pkg/events"
	"github.com/callmelater/operion-callmelater/pkg/mocks"
	"github.com/callmelater/operion-callmelater/pkg/nodes/trigger"
	"github.com/callmelater/operion-callmelater/pkg/otelhelper"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"github.com/callmelater/operion-callmelater/pkg/registry"
	"github.com/callmelater/operion-callmelater/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const webhookSecret = "whsec_test"

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) received() []events.CallMeLaterEventReceived {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []events.CallMeLaterEventReceived

	for _, e := range p.events {
		if r, ok := e.(events.CallMeLaterEventReceived); ok {
			out = append(out, r)
		}
	}

	return out
}

type stubClient struct {
	response map[string]any
	err      error
	calls    int
}

func (s *stubClient) Request(context.Context, string, string, any) (map[string]any, error) {
	s.calls++

	return s.response, s.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Triggers = []config.TriggerConfig{
		{ID: "signed", Event: "any", Secret: webhookSecret},
		{ID: "failures", Event: "action.failed"},
	}

	return cfg
}

func setupTestApp(t *testing.T, client protocol.HTTPClient, publisher eventbus.EventPublisher, opts ...web.Option) *fiber.App {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes()

	handlers, err := web.NewAPIHandlers(logger, reg, client, publisher, validator.New(validator.WithRequiredStructEnabled()), testConfig(), opts...)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/nodes/callmelater/execute", handlers.ExecuteAction)
	app.Post("/webhook/:triggerId", handlers.ReceiveWebhook)
	app.Get("/nodes", handlers.ListNodes)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body []byte, headers map[string]string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}

	return resp.StatusCode, decoded
}

func TestExecuteAction(t *testing.T) {
	t.Parallel()

	envelope := map[string]any{"data": map[string]any{"id": "act_1", "status": "pending"}}

	tests := []struct {
		name           string
		client         *stubClient
		body           string
		expectedStatus int
		expectedType   string
		validate       func(t *testing.T, body map[string]any)
	}{
		{
			name:           "create webhook",
			client:         &stubClient{response: envelope},
			body:           `{"execution_id":"exec-1","parameters":{"operation":"createWebhook","name":"ping","schedule":"1h","webhookUrl":"https://x/y"}}`,
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				t.Helper()
				assert.Equal(t, "exec-1", body["execution_id"])
				items := body["items"].([]any)
				require.Len(t, items, 1)
				assert.Equal(t, map[string]any{"json": map[string]any{"id": "act_1", "status": "pending"}}, items[0])
			},
		},
		{
			name:           "generates execution id",
			client:         &stubClient{response: envelope},
			body:           `{"parameters":{"operation":"get","actionId":"act_1"}}`,
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				t.Helper()
				assert.NotEmpty(t, body["execution_id"])
			},
		},
		{
			name:           "continue on fail",
			client:         &stubClient{response: envelope},
			body:           `{"continue_on_fail":true,"parameters":{"operation":"get"},"items":[{"actionId":"act_1"},{"operation":"archive"}]}`,
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				t.Helper()
				items := body["items"].([]any)
				require.Len(t, items, 2)
				assert.Equal(t, map[string]any{"json": map[string]any{"error": "Unknown operation: archive"}}, items[1])
			},
		},
		{
			name:           "invalid json",
			client:         &stubClient{response: envelope},
			body:           `{"parameters":`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "missing parameters",
			client:         &stubClient{response: envelope},
			body:           `{"items":[]}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "unknown operation",
			client:         &stubClient{response: envelope},
			body:           `{"parameters":{"operation":"archive"}}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "operation_error",
		},
		{
			name:           "missing action id",
			client:         &stubClient{response: envelope},
			body:           `{"parameters":{"operation":"cancel"}}`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "parameter_error",
		},
		{
			name: "remote api error",
			client: &stubClient{err: &api.APIError{
				StatusCode: http.StatusNotFound,
				Method:     http.MethodGet,
				Path:       "/api/v1/actions/nope",
				Body:       []byte(`{"message":"not found"}`),
			}},
			body:           `{"parameters":{"operation":"get","actionId":"nope"}}`,
			expectedStatus: http.StatusBadGateway,
			expectedType:   "callmelater_api_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := &recordingPublisher{}
			app := setupTestApp(t, tt.client, publisher)

			status, body := doJSON(t, app, http.MethodPost, "/nodes/callmelater/execute", []byte(tt.body), nil)
			assert.Equal(t, tt.expectedStatus, status)

			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, body["type"])
			}

			if tt.validate != nil {
				tt.validate(t, body)
			}

			if status == http.StatusOK {
				require.Len(t, publisher.events, 1)
				assert.Equal(t, events.ActionExecutedType, publisher.events[0].GetType())
			}
		})
	}
}

func TestExecuteAction_WithoutCredentials(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, nil, &recordingPublisher{})

	status, body := doJSON(t, app, http.MethodPost, "/nodes/callmelater/execute", []byte(`{"parameters":{"operation":"get","actionId":"a"}}`), nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "credentials_missing", body["type"])
}

func TestReceiveWebhook(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event":"action.executed","action_id":"act_1","action_name":"ping","timestamp":"2025-02-15T14:30:00Z"}`)

	tests := []struct {
		name           string
		triggerID      string
		headers        map[string]string
		publishErr     error
		expectedStatus int
		expectedBody   map[string]any
		published      int
	}{
		{
			name:           "valid signature",
			triggerID:      "signed",
			headers:        map[string]string{"X-Callmelater-Signature": trigger.Sign(webhookSecret, payload)},
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]any{"received": true},
			published:      1,
		},
		{
			name:           "missing signature",
			triggerID:      "signed",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   map[string]any{"error": "Missing signature header"},
		},
		{
			name:           "invalid signature",
			triggerID:      "signed",
			headers:        map[string]string{"X-Callmelater-Signature": "sha256=deadbeef"},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   map[string]any{"error": "Invalid signature"},
		},
		{
			name:           "filtered event",
			triggerID:      "failures",
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]any{"received": true, "filtered": true},
		},
		{
			name:           "publish failure",
			triggerID:      "signed",
			headers:        map[string]string{"X-Callmelater-Signature": trigger.Sign(webhookSecret, payload)},
			publishErr:     errors.New("bus down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   map[string]any{"error": "Error processing webhook"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := &recordingPublisher{err: tt.publishErr}
			app := setupTestApp(t, &stubClient{}, publisher)

			status, body := doJSON(t, app, http.MethodPost, "/webhook/"+tt.triggerID, payload, tt.headers)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedBody, body)

			received := publisher.received()
			require.Len(t, received, tt.published)

			if tt.published > 0 {
				assert.Equal(t, tt.triggerID, received[0].TriggerID)
				assert.Equal(t, "action.executed", received[0].Event)
				assert.Equal(t, "act_1", received[0].Data["action_id"])
				assert.Contains(t, received[0].Data, "_raw")
			}
		})
	}
}

func TestReceiveWebhook_UnknownTrigger(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, &stubClient{}, &recordingPublisher{})

	status, body := doJSON(t, app, http.MethodPost, "/webhook/nope", []byte(`{}`), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["type"])
}

func TestListNodesAndHealth(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t, &stubClient{}, &recordingPublisher{})

	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	var nodes []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "callmelater", nodes[0]["id"])
	assert.Equal(t, "trigger:callmelater", nodes[1]["id"])

	status, body := doJSON(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.InDelta(t, 2, body["triggers"], 0)
}

func TestNewAPIHandlers_RejectsBadTrigger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes()

	cfg := config.Default()
	cfg.Triggers = []config.TriggerConfig{{ID: "bad", Event: "action.deleted"}}

	_, err := web.NewAPIHandlers(logger, reg, nil, &recordingPublisher{}, validator.New(), cfg)
	require.ErrorIs(t, err, registry.ErrInvalidConfig)
}

func TestTriggerLifecycle(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes()

	handlers, err := web.NewAPIHandlers(logger, reg, nil, &recordingPublisher{}, validator.New(), testConfig())
	require.NoError(t, err)

	require.NoError(t, handlers.EnsureTriggers(context.Background()))
	handlers.ReleaseTriggers(context.Background())
}

func TestReceiveWebhook_PublishesOneEventPerItem(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "failures", mock.MatchedBy(func(e eventbus.Event) bool {
		received, ok := e.(events.CallMeLaterEventReceived)

		return ok && received.Event == "action.failed" && received.ActionID == "act_5"
	})).Return(nil).Once()

	app := setupTestApp(t, &stubClient{}, bus)

	status, body := doJSON(t, app, http.MethodPost, "/webhook/failures",
		[]byte(`{"event":"action.failed","action_id":"act_5","error":"connection refused"}`), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"received": true}, body)

	bus.AssertExpectations(t)
}

func TestExecuteAction_PublishesResolvedOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		operation string
	}{
		{
			name:      "node default",
			body:      `{"parameters":{"name":"ping","webhookUrl":"https://x/y"}}`,
			operation: "createWebhook",
		},
		{
			name:      "per item",
			body:      `{"parameters":{"actionId":"act_1"},"items":[{"operation":"get"},{"operation":"cancel"},{"operation":"get"}]}`,
			operation: "get,cancel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := &recordingPublisher{}
			client := &stubClient{response: map[string]any{"data": map[string]any{"id": "act_1"}}}
			app := setupTestApp(t, client, publisher)

			status, _ := doJSON(t, app, http.MethodPost, "/nodes/callmelater/execute", []byte(tt.body), nil)
			require.Equal(t, http.StatusOK, status)

			require.Len(t, publisher.events, 1)
			executed, ok := publisher.events[0].(events.ActionExecuted)
			require.True(t, ok)
			assert.Equal(t, tt.operation, executed.Operation)
		})
	}
}

func TestReceiveWebhook_RecordsSpan(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	publisher := &recordingPublisher{}
	app := setupTestApp(t, &stubClient{}, publisher, web.WithTracer(provider.Tracer("test")))

	status, _ := doJSON(t, app, http.MethodPost, "/webhook/failures",
		[]byte(`{"event":"action.failed","action_id":"act_5"}`), nil)
	require.Equal(t, http.StatusOK, status)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "callmelater.webhook", spans[0].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}

	assert.Equal(t, "failures", attrs[otelhelper.TriggerIDKey].AsString())
	assert.Equal(t, "action.failed", attrs[otelhelper.EventTypeKey].AsString())

	received := publisher.received()
	require.Len(t, received, 1)
	require.Len(t, spans[0].Events(), 1)

	eventAttrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Events()[0].Attributes {
		eventAttrs[kv.Key] = kv.Value
	}

	assert.Equal(t, received[0].ID, eventAttrs[otelhelper.EventIDKey].AsString())
}
