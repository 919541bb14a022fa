// Package rtos provides the scheduler and bounded queue the blocking-queue
// harness runs on.
//
// A [Kernel] owns a single virtual CPU. Tasks are goroutines, but only the
// task holding the CPU executes; every other task is ready, blocked inside a
// [Queue] call, or deleted. Scheduling follows a fixed-priority preemptive
// policy:
//
//   - The highest-priority ready task runs. Ties go to the task that has been
//     ready the longest.
//   - Queue calls are preemption points. A send that wakes a higher-priority
//     receiver (or a receive that wakes a higher-priority sender) hands the
//     CPU over before the call returns.
//   - Equal-priority tasks rotate when the running task's time slice has
//     expired at its next queue call.
//
// Blocking calls take a timeout. A zero timeout never blocks; a timed-out
// send returns ErrQueueFull and a timed-out receive ErrQueueEmpty.
//
// # Usage
//
//	k := rtos.NewKernel(rtos.WithTimeSlice(time.Millisecond))
//	q, err := rtos.NewQueue[uint16](k, 1)
//	if err != nil {
//	    return err
//	}
//	consumer, _ := k.CreateTask("consumer", 2, func(ctx context.Context) {
//	    for {
//	        v, err := q.Receive(ctx, time.Second)
//	        if ctx.Err() != nil {
//	            return
//	        }
//	        _ = v
//	        _ = err
//	    }
//	})
//	defer k.Shutdown()
//
// Deleting a task cancels its context. A task blocked in a queue call returns
// immediately with the context error; the task goroutine is expected to
// return once it sees a cancelled context.
package rtos
