package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/callmelater/operion-callmelater/pkg/events"
	redis "github.com/redis/go-redis/v9"
)

const popTimeout = time.Second

// redisEnvelope is the list entry format; a consumer popping the list sees
// the event type and key alongside the payload.
type redisEnvelope struct {
	Key     string           `json:"key"`
	Type    events.EventType `json:"event_type"`
	Payload json.RawMessage  `json:"payload"`
}

// RedisEventBus appends events to a Redis list with RPUSH and consumes them
// with BLPOP, so any worker that pops the list receives each event once.
// Entries whose type has no handler in this process are pushed back to the tail.
type RedisEventBus struct {
	client        redis.UniversalClient
	queue         string
	logger        *slog.Logger
	mu            sync.RWMutex
	subscriptions map[events.EventType]EventHandler
	stop          chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// NewRedisEventBus connects to addr and checks the connection with PING.
func NewRedisEventBus(ctx context.Context, opts *redis.Options, queue string, logger *slog.Logger) (*RedisEventBus, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger = logger.With("module", "redis_event_bus", "queue", queue)
	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return &RedisEventBus{
		client:        client,
		queue:         queue,
		logger:        logger,
		subscriptions: make(map[events.EventType]EventHandler),
		stop:          make(chan struct{}),
	}, nil
}

func (eb *RedisEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	entry, err := json.Marshal(redisEnvelope{Key: key, Type: event.GetType(), Payload: payload})
	if err != nil {
		return err
	}

	return eb.client.RPush(ctx, eb.queue, entry).Err()
}

func (eb *RedisEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *RedisEventBus) Subscribe(ctx context.Context) error {
	eb.wg.Add(1)

	go eb.consume(ctx)

	return nil
}

func (eb *RedisEventBus) consume(ctx context.Context) {
	defer eb.wg.Done()

	for {
		select {
		case <-eb.stop:
			return
		case <-ctx.Done():
			return
		default:
			if err := eb.processMessage(ctx); err != nil {
				eb.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (eb *RedisEventBus) processMessage(ctx context.Context) error {
	result, err := eb.client.BLPop(ctx, popTimeout, eb.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var envelope redisEnvelope
	if err := json.Unmarshal([]byte(result[1]), &envelope); err != nil {
		eb.logger.ErrorContext(ctx, "dropping malformed queue entry", "error", err)

		return nil
	}

	eb.mu.RLock()
	handler, exists := eb.subscriptions[envelope.Type]
	eb.mu.RUnlock()

	if !exists {
		return eb.requeue(ctx, envelope.Type, result[1])
	}

	event, err := decodeEvent(envelope.Type, envelope.Payload)
	if err != nil {
		eb.logger.ErrorContext(ctx, "dropping undecodable event", "event_type", envelope.Type, "error", err)

		return nil
	}

	if err := handler(ctx, event); err != nil {
		eb.logger.ErrorContext(ctx, "event handler failed", "event_type", envelope.Type, "error", err)
	}

	return nil
}

// requeue hands an entry this process has no handler for back to the list so
// another consumer can take it, then pauses so a lone consumer does not spin
// on the same entry.
func (eb *RedisEventBus) requeue(ctx context.Context, eventType events.EventType, entry string) error {
	if err := eb.client.RPush(ctx, eb.queue, entry).Err(); err != nil {
		return fmt.Errorf("failed to requeue %s event: %w", eventType, err)
	}

	eb.logger.DebugContext(ctx, "requeued event without handler", "event_type", eventType)

	timer := time.NewTimer(popTimeout)
	defer timer.Stop()

	select {
	case <-eb.stop:
	case <-ctx.Done():
	case <-timer.C:
	}

	return nil
}

func (eb *RedisEventBus) Close() error {
	eb.closeOnce.Do(func() {
		close(eb.stop)
	})

	eb.wg.Wait()

	return eb.client.Close()
}
