// Package blockq exercises a bounded blocking queue under a preemptive
// priority scheduler.
//
// Three fixed scenarios each pair a [Producer] with a [Consumer] over one
// queue:
//
//   - Scenario 1: capacity 1, the consumer runs at the elevated priority and
//     blocks on receive, so it preempts the producer as soon as an item
//     arrives.
//   - Scenario 2: capacity 1, the producer runs at the elevated priority and
//     blocks on a full queue until the idle consumer drains it.
//   - Scenario 3: capacity 5, both tasks run at idle priority and share the
//     CPU by time slicing.
//
// The producer sends an increasing 16-bit sequence starting at [SeedValue].
// The consumer checks every value against the one it expects. A send
// failure or an out-of-sequence value sets the task's sticky error flag,
// after which its progress counter is frozen for good while the task keeps
// running.
//
// A [Harness] owns the counters and exposes the controller operations:
// StartAll, StopAll, PollLiveness, PrintCounters and ResetCounters. The
// [LivenessMonitor] reports true only when all six counters advanced since
// the previous poll. The [GoalDetector] fires when the scenario 1 consumer
// count reaches [GoalValue].
//
// # Usage
//
//	k := rtos.NewKernel()
//	h := blockq.New(blockq.NewRuntime(k),
//	    blockq.WithDisplay(sink),
//	    blockq.WithErrorCallback(onError),
//	    blockq.WithGoalCallback(onGoal),
//	)
//	if err := h.StartAll(2); err != nil {
//	    return err
//	}
//	defer h.StopAll()
//
//	ok := h.PollLiveness()
package blockq
