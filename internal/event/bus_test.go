package event

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/blockq/internal/logging"
)

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var received Event
	id := bus.Subscribe(TypeGoalReached, func(e Event) {
		received = e
	})
	if id == "" {
		t.Fatal("Subscribe should return a non-empty ID")
	}

	bus.Publish(NewGoalReachedEvent(3000, 1))

	goal, ok := received.(GoalReachedEvent)
	if !ok {
		t.Fatalf("received %T, want GoalReachedEvent", received)
	}
	if goal.Target != 3000 || goal.Count != 1 {
		t.Errorf("goal event = %+v, want target 3000 count 1", goal)
	}
	if goal.Timestamp().IsZero() {
		t.Error("Timestamp() is zero")
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TypeTaskError, func(e Event) {
		t.Error("handler called for non-matching event type")
	})
	bus.Publish(NewLivenessCheckedEvent(1, true, nil))
}

func TestBus_SpecificBeforeWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(e Event) {
		order = append(order, "wildcard:"+e.EventType())
	})
	bus.Subscribe(TypeTaskError, func(e Event) {
		order = append(order, "specific:"+e.EventType())
	})

	bus.Publish(NewTaskErrorEvent(1))
	bus.Publish(NewHarnessStoppedEvent("goal"))

	want := []string{
		"specific:task.error",
		"wildcard:task.error",
		"wildcard:harness.stopped",
	}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("dispatch order = %v, want %v", order, want)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := make(map[string]int)
	id1 := bus.Subscribe(TypeTaskError, func(e Event) { calls["first"]++ })
	bus.Subscribe(TypeTaskError, func(e Event) { calls["second"]++ })

	if !bus.Unsubscribe(id1) {
		t.Error("Unsubscribe should return true for an existing subscription")
	}
	if bus.Unsubscribe(id1) {
		t.Error("Unsubscribe should return false the second time")
	}

	bus.Publish(NewTaskErrorEvent(1))

	if calls["first"] != 0 || calls["second"] != 1 {
		t.Errorf("calls = %v, want only second handler called", calls)
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TypeTaskError, func(e Event) {})
	bus.Subscribe(TypeGoalReached, func(e Event) {})
	bus.SubscribeAll(func(e Event) {})

	if bus.SubscriptionCount() != 3 {
		t.Errorf("SubscriptionCount() = %d before Clear, want 3", bus.SubscriptionCount())
	}
	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear, want 0", bus.SubscriptionCount())
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(WithLogger(logging.NewWriterLogger(&buf, logging.LevelError)))

	calls := 0
	bus.Subscribe(TypeTaskError, func(e Event) {
		calls++
		panic("handler panic")
	})
	bus.Subscribe(TypeTaskError, func(e Event) {
		calls++
	})

	bus.Publish(NewTaskErrorEvent(1))

	if calls != 2 {
		t.Errorf("calls = %d, want both handlers called despite panic", calls)
	}
	if bus.Panics() != 1 {
		t.Errorf("Panics() = %d, want 1", bus.Panics())
	}
	if !strings.Contains(buf.String(), "event handler panicked") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	calls := 0
	bus.Subscribe(TypeLivenessChecked, func(e Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			bus.Publish(NewLivenessCheckedEvent(int64(i), true, nil))
		})
	}
	wg.Wait()

	if calls != 100 {
		t.Errorf("calls = %d, want 100", calls)
	}
}

func TestBus_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			id := bus.Subscribe(TypeTaskError, func(e Event) {})
			bus.Unsubscribe(id)
		})
	}
	wg.Wait()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after concurrent add/remove, want 0", bus.SubscriptionCount())
	}
}

func TestBus_UniqueIDs(t *testing.T) {
	bus := NewBus()

	ids := make(map[string]bool)
	for range 1000 {
		id := bus.Subscribe(TypeTaskError, func(e Event) {})
		if ids[id] {
			t.Errorf("duplicate subscription ID: %s", id)
		}
		ids[id] = true
	}
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{NewHarnessStartedEvent(2, 6), TypeHarnessStarted},
		{NewHarnessStoppedEvent("duration"), TypeHarnessStopped},
		{NewTaskErrorEvent(3), TypeTaskError},
		{NewGoalReachedEvent(3000, 1), TypeGoalReached},
		{NewLivenessCheckedEvent(4, false, []string{"QConsB1"}), TypeLivenessChecked},
	}
	for _, tt := range tests {
		if got := tt.event.EventType(); got != tt.want {
			t.Errorf("EventType() = %q, want %q", got, tt.want)
		}
	}
}
