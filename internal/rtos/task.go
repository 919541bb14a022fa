package rtos

import (
	"context"
	"time"
)

type taskState int

const (
	stateReady taskState = iota
	stateRunning
	stateBlocked
	stateDeleted
)

// String returns the state name.
func (s taskState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateRunning:
		return "running"
	case stateBlocked:
		return "blocked"
	case stateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

type taskKey struct{}

// Task is a handle to a kernel task.
type Task struct {
	k      *Kernel
	name   string
	prio   Priority
	ctx    context.Context
	cancel context.CancelFunc
	grant  chan struct{} // receives one token each time the task is dispatched
	done   chan struct{}

	// guarded by k.mu
	state    taskState
	waitList *waitList
	timer    *time.Timer
	timedOut bool
	blockSeq uint64
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Priority returns the task priority.
func (t *Task) Priority() Priority { return t.prio }

// Done is closed once the task goroutine has returned.
func (t *Task) Done() <-chan struct{} { return t.done }

// State returns the scheduling state: ready, running, blocked or deleted.
func (t *Task) State() string {
	t.k.mu.Lock()
	defer t.k.mu.Unlock()
	return t.state.String()
}

// Delete terminates the task. A task parked in a queue call returns from it
// immediately; a task executing between kernel calls stops at its next one.
// Delete does not wait; use Done for that.
func (t *Task) Delete() {
	t.cancel()
	t.k.mu.Lock()
	t.k.removeLocked(t)
	t.k.mu.Unlock()
	t.k.logger.Debug("task deleted", "task", t.name)
}

func (t *Task) run(entry TaskFunc) {
	defer close(t.done)
	defer t.exit()

	if err := t.acquire(); err != nil {
		return
	}
	entry(t.ctx)
}

// acquire waits until the task is dispatched or deleted.
func (t *Task) acquire() error {
	select {
	case <-t.grant:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

// aliveLocked returns the cancellation error once the task has been deleted.
func (t *Task) aliveLocked() error {
	if t.state == stateDeleted {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	}
	return nil
}

func (t *Task) exit() {
	t.cancel()
	t.k.mu.Lock()
	t.k.removeLocked(t)
	t.k.releaseLocked(t)
	t.k.mu.Unlock()
}

// waitList holds tasks blocked on one side of a queue, highest priority
// first and FIFO among equals.
type waitList struct {
	tasks []*Task
}

func (w *waitList) add(t *Task) {
	i := len(w.tasks)
	for j, o := range w.tasks {
		if t.prio > o.prio {
			i = j
			break
		}
	}
	w.tasks = append(w.tasks, nil)
	copy(w.tasks[i+1:], w.tasks[i:])
	w.tasks[i] = t
}

func (w *waitList) pop() *Task {
	if len(w.tasks) == 0 {
		return nil
	}
	t := w.tasks[0]
	w.tasks = w.tasks[1:]
	return t
}

func (w *waitList) remove(t *Task) {
	for i, o := range w.tasks {
		if o == t {
			w.tasks = append(w.tasks[:i], w.tasks[i+1:]...)
			return
		}
	}
}

func (w *waitList) len() int { return len(w.tasks) }
