// Package credentials holds the CallMeLater API token and base URL shared by both nodes.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/callmelater/operion-callmelater/pkg/protocol"
)

const (
	// DefaultAPIURL is used when no base URL is configured.
	DefaultAPIURL = "https://api.callmelater.io"
	// QuotaPath is probed to check that the token is accepted.
	QuotaPath = "/api/v1/quota"
)

var (
	ErrMissingAPIToken = errors.New("api token is required")
	ErrInvalidAPIURL   = errors.New("invalid api url")
)

// Credentials authenticate requests against the CallMeLater API.
type Credentials struct {
	APIToken string `json:"api_token" yaml:"api_token"`
	APIURL   string `json:"api_url"   yaml:"api_url"`
}

// New normalises the base URL, falling back to DefaultAPIURL.
func New(apiToken, apiURL string) Credentials {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return Credentials{
		APIToken: strings.TrimSpace(apiToken),
		APIURL:   apiURL,
	}
}

// BaseURL returns the API URL without a trailing slash.
func (c Credentials) BaseURL() string {
	if c.APIURL == "" {
		return DefaultAPIURL
	}

	return strings.TrimRight(c.APIURL, "/")
}

func (c Credentials) Validate() error {
	if c.APIToken == "" {
		return ErrMissingAPIToken
	}

	parsed, err := url.Parse(c.BaseURL())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAPIURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidAPIURL, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidAPIURL)
	}

	return nil
}

// Authenticate sets the bearer token on an outbound request.
func (c Credentials) Authenticate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
}

// LogValue keeps the token out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_url", c.BaseURL()),
		slog.Bool("api_token_set", c.APIToken != ""),
	)
}

// Test probes the quota endpoint and returns its response.
func Test(ctx context.Context, client protocol.HTTPClient) (map[string]any, error) {
	quota, err := client.Request(ctx, http.MethodGet, QuotaPath, nil)
	if err != nil {
		return nil, fmt.Errorf("credential test failed: %w", err)
	}

	return quota, nil
}
