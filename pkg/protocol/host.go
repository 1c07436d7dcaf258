package protocol

import "context"

// ParameterSource resolves node parameters for a given input item. Implementations
// return (nil, false) when the parameter is not set for that item.
type ParameterSource interface {
	Parameter(name string, itemIndex int) (any, bool)
	ItemCount() int
}

// HTTPClient sends an authenticated JSON request to the remote API and returns
// the decoded response object. path is relative to the configured base URL.
type HTTPClient interface {
	Request(ctx context.Context, method, path string, body any) (map[string]any, error)
}
