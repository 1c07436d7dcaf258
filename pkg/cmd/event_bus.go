package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/callmelater/operion-callmelater/pkg/channels/gochannel"
	"github.com/callmelater/operion-callmelater/pkg/channels/kafka"
	"github.com/callmelater/operion-callmelater/pkg/config"
	"github.com/callmelater/operion-callmelater/pkg/eventbus"
	redis "github.com/redis/go-redis/v9"
)

const serviceName = "operion-callmelater"

// NewEventBus builds the bus selected by cfg.Type: "gochannel", "kafka" or "redis".
func NewEventBus(ctx context.Context, cfg config.EventBusConfig, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch cfg.Type {
	case config.EventBusGoChannel, "":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, err
		}

		logger.WarnContext(ctx, "Using the in-process gochannel event bus: forwarded events are not delivered anywhere "+
			"unless a consumer in this process subscribes; configure kafka or redis to hand them to other services",
			"event_bus", config.EventBusGoChannel)

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	case config.EventBusKafka:
		pub, sub, err := kafka.CreateChannel(wmLogger, cfg.Kafka.Brokers, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	case config.EventBusRedis:
		return eventbus.NewRedisEventBus(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Queue, logger)
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", cfg.Type)
	}
}
