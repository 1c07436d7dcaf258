package kafka_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/callmelater/operion-callmelater/pkg/channels/kafka"
	"github.com/stretchr/testify/require"
)

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, _, err := kafka.CreateChannel(watermill.NopLogger{}, []string{"", ""}, "callmelater")
	require.ErrorIs(t, err, kafka.ErrNoBrokers)
}
