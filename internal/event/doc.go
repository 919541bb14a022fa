// Package event provides a pub-sub event bus that decouples the harness
// callbacks from the components that react to them.
//
// The supervisor publishes from the error and goal callbacks and after every
// liveness poll; the CLI and the dashboard subscribe. Neither side knows
// about the other.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher, safe for concurrent use
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Types
//
//   - [HarnessStartedEvent] (harness.started)
//   - [HarnessStoppedEvent] (harness.stopped)
//   - [TaskErrorEvent] (task.error)
//   - [GoalReachedEvent] (goal.reached)
//   - [LivenessCheckedEvent] (liveness.checked)
//
// Handlers are called synchronously on the publisher's goroutine and are
// protected against panics. Keep them short: task errors and the goal are
// published from inside running tasks.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//
//	bus.Subscribe(event.TypeGoalReached, func(e event.Event) {
//	    goal := e.(event.GoalReachedEvent)
//	    fmt.Println("goal", goal.Target, "reached")
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("event", "type", e.EventType())
//	})
package event
