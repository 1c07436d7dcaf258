// Package eventbus delivers host events to downstream consumers.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/callmelater/operion-callmelater/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}

// decodeEvent turns a payload back into the concrete event for eventType.
func decodeEvent(eventType events.EventType, payload []byte) (any, error) {
	var event any

	switch eventType {
	case events.CallMeLaterEventReceivedType:
		event = &events.CallMeLaterEventReceived{}
	case events.ActionExecutedType:
		event = &events.ActionExecuted{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, err
	}

	return event, nil
}
