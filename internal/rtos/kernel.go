package rtos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/logging"
)

// Priority is a scheduling tier. A ready task with a higher priority
// preempts a running task with a lower one.
type Priority int

// PriorityIdle is the lowest priority.
const PriorityIdle Priority = 0

// DefaultTimeSlice is how long a task may keep the CPU while an equal
// priority task is ready.
const DefaultTimeSlice = time.Millisecond

// TaskFunc is a task entry point. The context is cancelled when the task is
// deleted and must be passed to every kernel call the task makes.
type TaskFunc func(ctx context.Context)

// Option configures a Kernel.
type Option func(*Kernel)

// WithTimeSlice sets the round-robin slice for equal-priority tasks.
func WithTimeSlice(d time.Duration) Option {
	return func(k *Kernel) {
		if d > 0 {
			k.slice = d
		}
	}
}

// WithLogger sets the kernel logger.
func WithLogger(l *logging.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// Kernel runs tasks on a single virtual CPU. Exactly one task holds the CPU
// at a time; the others are ready, blocked in a queue call, or deleted.
type Kernel struct {
	mu         sync.Mutex
	running    *Task
	ready      []*Task
	tasks      map[*Task]struct{}
	slice      time.Duration
	sliceStart time.Time
	closed     bool

	wg     conc.WaitGroup
	logger *logging.Logger
}

// NewKernel creates an idle kernel.
func NewKernel(opts ...Option) *Kernel {
	k := &Kernel{
		tasks:  make(map[*Task]struct{}),
		slice:  DefaultTimeSlice,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// CreateTask registers a task and makes it ready. The task starts executing
// entry once it is dispatched.
func (k *Kernel) CreateTask(name string, prio Priority, entry TaskFunc) (*Task, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: nil entry for %s", errors.ErrTaskCreate, name)
	}
	if prio < PriorityIdle {
		return nil, fmt.Errorf("%w: negative priority %d for %s", errors.ErrTaskCreate, prio, name)
	}

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", errors.ErrTaskCreate, errors.ErrKernelClosed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		k:      k,
		name:   name,
		prio:   prio,
		cancel: cancel,
		grant:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	t.ctx = context.WithValue(ctx, taskKey{}, t)
	k.tasks[t] = struct{}{}
	k.readyLocked(t)
	k.mu.Unlock()

	k.logger.Debug("task created", "task", name, "priority", int(prio))
	k.wg.Go(func() { t.run(entry) })
	return t, nil
}

// Shutdown deletes every task and waits for their goroutines to return.
// A panic inside a task is reported as an error.
func (k *Kernel) Shutdown() error {
	k.mu.Lock()
	k.closed = true
	tasks := make([]*Task, 0, len(k.tasks))
	for t := range k.tasks {
		tasks = append(tasks, t)
	}
	k.mu.Unlock()

	for _, t := range tasks {
		t.Delete()
	}
	if r := k.wg.WaitAndRecover(); r != nil {
		k.logger.Error("task panicked", "panic", r.String())
		return fmt.Errorf("task panicked: %v", r.Value)
	}
	return nil
}

// Running returns the name of the task holding the CPU, or "" when idle.
func (k *Kernel) Running() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running == nil {
		return ""
	}
	return k.running.name
}

// TaskCount returns the number of tasks that have not been deleted.
func (k *Kernel) TaskCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.tasks)
}

// current returns the task making a kernel call. The task must hold the CPU.
func (k *Kernel) current(ctx context.Context) (*Task, error) {
	t, ok := ctx.Value(taskKey{}).(*Task)
	if !ok || t.k != k {
		return nil, errors.ErrNotTask
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// readyLocked moves t to the ready list and dispatches it if the CPU is free.
// A higher priority than the running task is picked up at the running task's
// next preemption point.
func (k *Kernel) readyLocked(t *Task) {
	t.state = stateReady
	k.ready = append(k.ready, t)
	k.dispatchLocked()
}

// dispatchLocked hands the CPU to the highest-priority ready task, oldest
// first among equals, if no task holds it.
func (k *Kernel) dispatchLocked() {
	if k.running != nil || len(k.ready) == 0 {
		return
	}
	best := 0
	for i, t := range k.ready {
		if t.prio > k.ready[best].prio {
			best = i
		}
	}
	t := k.ready[best]
	k.ready = append(k.ready[:best], k.ready[best+1:]...)

	t.state = stateRunning
	k.running = t
	k.sliceStart = time.Now()
	select {
	case t.grant <- struct{}{}:
	default:
	}
}

// releaseLocked gives up the CPU held by t.
func (k *Kernel) releaseLocked(t *Task) {
	if k.running == t {
		k.running = nil
		k.dispatchLocked()
	}
}

// shouldYieldLocked reports whether the running task t must give up the CPU:
// a higher-priority task is ready, or its slice expired and an equal-priority
// task is waiting.
func (k *Kernel) shouldYieldLocked(t *Task) bool {
	sliceExpired := time.Since(k.sliceStart) >= k.slice
	for _, r := range k.ready {
		if r.prio > t.prio {
			return true
		}
		if r.prio == t.prio && sliceExpired {
			return true
		}
	}
	return false
}

// preemptionPoint runs at the end of every kernel call. If t must yield it is
// put at the back of the ready list and waits to be dispatched again.
func (k *Kernel) preemptionPoint(t *Task) error {
	k.mu.Lock()
	if err := t.aliveLocked(); err != nil {
		k.mu.Unlock()
		return err
	}
	if k.running != t || !k.shouldYieldLocked(t) {
		k.mu.Unlock()
		return nil
	}
	k.running = nil
	k.readyLocked(t)
	k.mu.Unlock()
	return t.acquire()
}

// blockLocked parks the running task t on wl for at most timeout and hands
// the CPU to the next ready task. It returns with k.mu held once t owns the
// CPU again, reporting whether the wait ended by timeout.
func (k *Kernel) blockLocked(t *Task, wl *waitList, timeout time.Duration) (bool, error) {
	t.state = stateBlocked
	t.timedOut = false
	t.blockSeq++
	seq := t.blockSeq
	t.waitList = wl
	wl.add(t)
	t.timer = time.AfterFunc(timeout, func() { k.expire(t, seq) })

	k.running = nil
	k.dispatchLocked()
	k.mu.Unlock()

	err := t.acquire()
	k.mu.Lock()
	return t.timedOut, err
}

// expire is the block timer callback.
func (k *Kernel) expire(t *Task, seq uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if t.state != stateBlocked || t.blockSeq != seq {
		return
	}
	t.waitList.remove(t)
	t.waitList = nil
	t.timer = nil
	t.timedOut = true
	k.readyLocked(t)
}

// wakeLocked readies the highest-priority task waiting on wl, if any.
func (k *Kernel) wakeLocked(wl *waitList) {
	t := wl.pop()
	if t == nil {
		return
	}
	t.waitList = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	k.readyLocked(t)
}

// removeLocked takes t out of every kernel structure.
func (k *Kernel) removeLocked(t *Task) {
	if t.state == stateDeleted {
		return
	}
	if t.waitList != nil {
		t.waitList.remove(t)
		t.waitList = nil
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	for i, r := range k.ready {
		if r == t {
			k.ready = append(k.ready[:i], k.ready[i+1:]...)
			break
		}
	}
	delete(k.tasks, t)
	t.state = stateDeleted
}
