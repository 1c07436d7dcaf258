package cmd_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/callmelater/operion-callmelater/pkg/cmd"
	"github.com/callmelater/operion-callmelater/pkg/config"
	"github.com/callmelater/operion-callmelater/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventBus(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	bus, err := cmd.NewEventBus(context.Background(), config.EventBusConfig{Type: config.EventBusGoChannel}, logger)
	require.NoError(t, err)
	assert.IsType(t, &eventbus.WatermillEventBus{}, bus)
	require.NoError(t, bus.Close())

	_, err = cmd.NewEventBus(context.Background(), config.EventBusConfig{Type: config.EventBusKafka}, logger)
	require.Error(t, err)

	_, err = cmd.NewEventBus(context.Background(), config.EventBusConfig{Type: "nats"}, logger)
	require.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	reg, err := cmd.NewRegistry(slog.New(slog.DiscardHandler), t.TempDir())
	require.NoError(t, err)
	assert.Len(t, reg.Descriptors(), 2)
}

func TestNewEventBus_WarnsThatGoChannelHasNoConsumer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bus, err := cmd.NewEventBus(context.Background(), config.EventBusConfig{}, logger)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "forwarded events are not delivered anywhere")
}
