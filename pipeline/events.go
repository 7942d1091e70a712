package pipeline

import (
	"sync"
	"time"
)

// EventType identifies the kind of lifecycle event emitted during a run.
type EventType string

const (
	EventRunStarted        EventType = "run.started"
	EventRunCompleted      EventType = "run.completed"
	EventRunFailed         EventType = "run.failed"
	EventStageStarted      EventType = "stage.started"
	EventStageCompleted    EventType = "stage.completed"
	EventApprovalRequested EventType = "approval.requested"
	EventApprovalResolved  EventType = "approval.resolved"
)

// Event is a lifecycle notification. Events are advisory; run outcomes are
// carried by Result and State, never by events alone.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

func newEvent(t EventType, data map[string]any) Event {
	return Event{Type: t, Timestamp: time.Now().UTC(), Data: data}
}

// RunStartedEvent marks the beginning of a run. Mode is "extraction" or
// "knowledge"; input is the URL or the dish name.
func RunStartedEvent(mode, input string) Event {
	return newEvent(EventRunStarted, map[string]any{
		"mode":  mode,
		"input": input,
	})
}

// RunCompletedEvent marks a successful run.
func RunCompletedEvent(source Source, duration time.Duration) Event {
	return newEvent(EventRunCompleted, map[string]any{
		"source":      string(source),
		"duration_ms": duration.Milliseconds(),
	})
}

// RunFailedEvent marks a failed run with its stable reason.
func RunFailedEvent(reason, detail string, duration time.Duration) Event {
	return newEvent(EventRunFailed, map[string]any{
		"reason":      reason,
		"detail":      detail,
		"duration_ms": duration.Milliseconds(),
	})
}

// StageStartedEvent marks entry into a processing stage.
func StageStartedEvent(stage Stage) Event {
	return newEvent(EventStageStarted, map[string]any{
		"stage": string(stage),
	})
}

// StageCompletedEvent marks a stage finishing.
func StageCompletedEvent(stage Stage, duration time.Duration) Event {
	return newEvent(EventStageCompleted, map[string]any{
		"stage":       string(stage),
		"duration_ms": duration.Milliseconds(),
	})
}

// ApprovalRequestedEvent marks a knowledge-mode run waiting at the gate.
func ApprovalRequestedEvent(recipeName string) Event {
	return newEvent(EventApprovalRequested, map[string]any{
		"recipe_name": recipeName,
	})
}

// ApprovalResolvedEvent marks the gate's decision.
func ApprovalResolvedEvent(recipeName string, approved bool) Event {
	return newEvent(EventApprovalResolved, map[string]any{
		"recipe_name": recipeName,
		"approved":    approved,
	})
}

// EventHandler receives emitted events. Handlers must not block; slow
// consumers should buffer on their own side.
type EventHandler func(Event)

// EventEmitter fans events out to registered handlers. The zero value is
// usable; a nil emitter drops all events.
type EventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewEventEmitter creates an emitter with no handlers.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{}
}

// Subscribe registers a handler for all subsequent events.
func (e *EventEmitter) Subscribe(h EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Emit delivers the event to every handler in registration order.
func (e *EventEmitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
