package mocks

import (
	"context"

	"github.com/callmelater/operion-callmelater/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

var _ protocol.HTTPClient = (*MockHTTPClient)(nil)

// MockHTTPClient is a mock implementation of protocol.HTTPClient.
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Request(ctx context.Context, method, path string, body any) (map[string]any, error) {
	args := m.Called(ctx, method, path, body)

	resp, _ := args.Get(0).(map[string]any)

	return resp, args.Error(1)
}
