package blockq

import (
	"context"
	"slices"
	"testing"
)

func advanceAll(s *HarnessState) {
	for i := 0; i < NumScenarios; i++ {
		s.Producers[i].inc()
		s.Consumers[i].inc()
	}
}

func TestLivenessMonitor_Poll(t *testing.T) {
	state := &HarnessState{}
	m := NewLivenessMonitor(state)

	advanceAll(state)
	if !m.Poll() {
		t.Fatal("Poll() = false after every counter advanced")
	}

	// No movement at all.
	if m.Poll() {
		t.Error("Poll() = true with no counter movement")
	}

	// One counter held constant.
	for i := 0; i < NumScenarios; i++ {
		state.Producers[i].inc()
		if i != 2 {
			state.Consumers[i].inc()
		}
	}
	r := m.PollReport()
	if r.Live {
		t.Error("Live = true with QConsB6 frozen")
	}
	if r.ConsumerAdvanced[2] {
		t.Error("ConsumerAdvanced[2] = true, want false")
	}
	if got := r.Stalled(); !slices.Equal(got, []string{"QConsB6"}) {
		t.Errorf("Stalled() = %v, want [QConsB6]", got)
	}

	// Snapshots were refreshed even though the poll failed.
	advanceAll(state)
	if !m.Poll() {
		t.Error("Poll() = false after all counters advanced again")
	}
}

func TestLivenessMonitor_ResetClearsSnapshots(t *testing.T) {
	state := &HarnessState{}
	m := NewLivenessMonitor(state)

	advanceAll(state)
	m.Poll()

	state.reset()
	m.reset()
	if m.Poll() {
		t.Error("Poll() = true right after reset")
	}
	advanceAll(state)
	if !m.Poll() {
		t.Error("Poll() = false after advancing from reset")
	}
}

func TestLivenessMonitor_FrozenConsumerAfterMismatch(t *testing.T) {
	state := &HarnessState{}
	m := NewLivenessMonitor(state)
	q := &fakeQueue{}
	c := NewConsumer("QConsB1", 1, TaskParameters{Queue: q, Counter: &state.Consumers[0]})
	ctx := context.Background()

	// Off-by-one injection on the second value.
	q.push(SeedValue, SeedValue+2)
	for i := 0; i < 2; i++ {
		_ = c.Step(ctx)
	}
	m.Poll()

	next := uint16(SeedValue + 3)
	for round := 0; round < 3; round++ {
		for i := 0; i < NumScenarios; i++ {
			state.Producers[i].inc()
			if i != 0 {
				state.Consumers[i].inc()
			}
		}
		q.push(next, next+1)
		next += 2
		_ = c.Step(ctx)
		_ = c.Step(ctx)

		r := m.PollReport()
		if r.Live || r.ConsumerAdvanced[0] {
			t.Fatalf("round %d: QConsB1 reported as advancing after mismatch", round)
		}
	}
}

func TestGoalDetector_FiresOncePerPass(t *testing.T) {
	state := &HarnessState{}
	fired := 0
	goal := NewGoalDetector(GoalValue, func() { fired++ })
	q := &fakeQueue{}
	c := NewConsumer("QConsB1", 1, TaskParameters{Queue: q, Counter: &state.Consumers[0]}, WithGoal(goal))
	ctx := context.Background()

	next := SeedValue
	cycle := func(n int) {
		for i := 0; i < n; i++ {
			q.push(next)
			next++
			if err := c.Step(ctx); err != nil {
				t.Fatalf("Step() = %v", err)
			}
		}
	}

	cycle(int(GoalValue))
	if state.Consumers[0].Load() != GoalValue {
		t.Fatalf("counter = %d, want %d", state.Consumers[0].Load(), GoalValue)
	}
	if fired != 1 || goal.Fired() != 1 {
		t.Fatalf("goal fired %d times (Fired()=%d), want 1", fired, goal.Fired())
	}

	cycle(500)
	if fired != 1 {
		t.Errorf("goal fired %d times past the target, want 1", fired)
	}

	// A reset followed by another pass through the target fires again.
	state.reset()
	cycle(int(GoalValue))
	if fired != 2 {
		t.Errorf("goal fired %d times after reset and second pass, want 2", fired)
	}
}

func TestGoalDetector_Observe(t *testing.T) {
	g := NewGoalDetector(5, nil)
	for _, v := range []uint16{1, 4, 6, 5} {
		got := g.Observe(v)
		if got != (v == 5) {
			t.Errorf("Observe(%d) = %v", v, got)
		}
	}
	if g.Fired() != 1 {
		t.Errorf("Fired() = %d, want 1", g.Fired())
	}
	if g.Target() != 5 {
		t.Errorf("Target() = %d, want 5", g.Target())
	}
}

func TestCounter_Wraps(t *testing.T) {
	var c Counter
	c.v.Store(65535)
	if got := c.inc(); got != 0 {
		t.Errorf("inc() at 65535 = %d, want 0", got)
	}
	if c.Load() != 0 {
		t.Errorf("Load() = %d, want 0", c.Load())
	}
}
