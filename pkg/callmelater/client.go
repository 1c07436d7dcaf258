// Package callmelater is the HTTP client for the CallMeLater REST API.
package callmelater

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/callmelater/operion-callmelater/pkg/credentials"
	"github.com/callmelater/operion-callmelater/pkg/otelhelper"
	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ActionsPath = "/api/v1/actions"

	defaultTimeout = 30 * time.Second
	tracerName     = "github.com/callmelater/operion-callmelater/pkg/callmelater"
)

var ErrUnexpectedResponse = errors.New("unexpected response from callmelater api")

// APIError is returned for any response with status 400 or above. Body holds
// the raw response so callers see exactly what the service said.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *APIError) Error() string {
	msg := string(bytes.TrimSpace(e.Body))
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("callmelater api %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Client implements protocol.HTTPClient against one CallMeLater account.
type Client struct {
	creds  credentials.Credentials
	http   *http.Client
	logger *slog.Logger
	tracer trace.Tracer
}

var _ protocol.HTTPClient = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// New creates a client. Credentials are validated up front so a missing token
// fails before the first request.
func New(creds credentials.Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		creds:  creds,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "callmelater_client")

	return c, nil
}

// Request sends body as JSON to path and decodes the JSON object in the response.
// An empty response body decodes to an empty map.
func (c *Client) Request(ctx context.Context, method, path string, body any) (map[string]any, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "callmelater.request",
		attribute.String("http.request.method", method),
		attribute.String(otelhelper.APIPathKey, path),
	)
	defer span.End()

	result, status, err := c.do(ctx, method, path, body)

	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.APIPathKey, path))
		c.logger.ErrorContext(ctx, "callmelater request failed",
			"method", method,
			"path", path,
			"status", status,
			"error", err,
		)

		return nil, err
	}

	c.logger.DebugContext(ctx, "callmelater request completed",
		"method", method,
		"path", path,
		"status", status,
	)

	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (map[string]any, int, error) {
	var reqBody io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request body: %w", err)
		}

		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.BaseURL()+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	c.creds.Authenticate(req)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       respBody,
		}
	}

	result := map[string]any{}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return result, resp.StatusCode, nil
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	return result, resp.StatusCode, nil
}
