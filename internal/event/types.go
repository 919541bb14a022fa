package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns "category.action", e.g. "goal.reached".
	EventType() string
	Timestamp() time.Time
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event types.
const (
	TypeHarnessStarted  = "harness.started"
	TypeHarnessStopped  = "harness.stopped"
	TypeTaskError       = "task.error"
	TypeGoalReached     = "goal.reached"
	TypeLivenessChecked = "liveness.checked"
)

// -----------------------------------------------------------------------------
// Harness Lifecycle Events
// -----------------------------------------------------------------------------

// HarnessStartedEvent is emitted once all six tasks have been created.
type HarnessStartedEvent struct {
	baseEvent
	Priority int // elevated priority passed to StartAll
	Tasks    int
}

// NewHarnessStartedEvent creates a HarnessStartedEvent.
func NewHarnessStartedEvent(priority, tasks int) HarnessStartedEvent {
	return HarnessStartedEvent{
		baseEvent: newBaseEvent(TypeHarnessStarted),
		Priority:  priority,
		Tasks:     tasks,
	}
}

// HarnessStoppedEvent is emitted after StopAll has deleted every task, or
// when a fatal error stops the harness during startup.
type HarnessStoppedEvent struct {
	baseEvent
	Reason string // "interrupted", "duration", "goal", "quit", "startup failed"
}

// NewHarnessStoppedEvent creates a HarnessStoppedEvent.
func NewHarnessStoppedEvent(reason string) HarnessStoppedEvent {
	return HarnessStoppedEvent{
		baseEvent: newBaseEvent(TypeHarnessStopped),
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Supervision Events
// -----------------------------------------------------------------------------

// TaskErrorEvent is emitted for every send failure or sequence mismatch.
// The error callback carries no arguments, so only the running total is known.
type TaskErrorEvent struct {
	baseEvent
	Total int64
}

// NewTaskErrorEvent creates a TaskErrorEvent.
func NewTaskErrorEvent(total int64) TaskErrorEvent {
	return TaskErrorEvent{
		baseEvent: newBaseEvent(TypeTaskError),
		Total:     total,
	}
}

// GoalReachedEvent is emitted when the goal consumer's count hits the target.
type GoalReachedEvent struct {
	baseEvent
	Target uint16
	Count  int64 // how many times the goal has fired, including this one
}

// NewGoalReachedEvent creates a GoalReachedEvent.
func NewGoalReachedEvent(target uint16, count int64) GoalReachedEvent {
	return GoalReachedEvent{
		baseEvent: newBaseEvent(TypeGoalReached),
		Target:    target,
		Count:     count,
	}
}

// LivenessCheckedEvent is emitted after each liveness poll.
type LivenessCheckedEvent struct {
	baseEvent
	Poll    int64
	Live    bool
	Stalled []string // names of tasks whose counters did not advance
}

// NewLivenessCheckedEvent creates a LivenessCheckedEvent.
func NewLivenessCheckedEvent(poll int64, live bool, stalled []string) LivenessCheckedEvent {
	return LivenessCheckedEvent{
		baseEvent: newBaseEvent(TypeLivenessChecked),
		Poll:      poll,
		Live:      live,
		Stalled:   stalled,
	}
}
