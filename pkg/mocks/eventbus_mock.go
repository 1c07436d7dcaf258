// Package mocks provides testify mocks for the host's collaborators.
package mocks

import (
	"context"

	"github.com/callmelater/operion-callmelater/pkg/eventbus"
	"github.com/callmelater/operion-callmelater/pkg/events"
	"github.com/stretchr/testify/mock"
)

var _ eventbus.EventBus = (*MockEventBus)(nil)

// MockEventBus is a mock implementation of eventbus.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	args := m.Called(eventType, handler)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}
