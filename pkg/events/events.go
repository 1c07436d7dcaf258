// Package events defines the events the host publishes for downstream consumers.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every event published by the host.
const Topic = "callmelater.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// CallMeLaterEventReceivedType is published for every callback the trigger forwards.
	CallMeLaterEventReceivedType EventType = "callmelater.event.received"
	// ActionExecutedType is published after the action node processed a batch.
	ActionExecutedType EventType = "callmelater.action.executed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// CallMeLaterEventReceived wraps one reshaped callback item.
type CallMeLaterEventReceived struct {
	BaseEvent

	TriggerID string         `json:"trigger_id"`
	Event     string         `json:"event"`
	ActionID  string         `json:"action_id,omitempty"`
	Data      map[string]any `json:"data"`
}

func NewCallMeLaterEventReceived(triggerID string, data map[string]any) CallMeLaterEventReceived {
	event, _ := data["event"].(string)
	actionID, _ := data["action_id"].(string)

	return CallMeLaterEventReceived{
		BaseEvent: NewBaseEvent(CallMeLaterEventReceivedType),
		TriggerID: triggerID,
		Event:     event,
		ActionID:  actionID,
		Data:      data,
	}
}

func (e CallMeLaterEventReceived) GetType() EventType {
	return CallMeLaterEventReceivedType
}

type ActionExecuted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Operation   string `json:"operation,omitempty"`
	Items       int    `json:"items"`
	Failed      int    `json:"failed"`
}

func (e ActionExecuted) GetType() EventType {
	return ActionExecutedType
}
