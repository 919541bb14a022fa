package blockq

import (
	"fmt"
	"io"
	"sync"

	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/logging"
	"github.com/Iron-Ham/blockq/internal/rtos"
)

// Option configures a Harness.
type Option func(*Harness)

// WithDisplay sets the sink for start and diagnostic messages.
func WithDisplay(s Sink) Option {
	return func(h *Harness) {
		if s != nil {
			h.sink = s
		}
	}
}

// WithErrorCallback sets the callback invoked on every send failure or
// sequence mismatch.
func WithErrorCallback(fn func()) Option {
	return func(h *Harness) { h.onError = fn }
}

// WithGoalCallback sets the callback invoked when the scenario 1 consumer
// count reaches GoalValue.
func WithGoalCallback(fn func()) Option {
	return func(h *Harness) { h.onGoal = fn }
}

// WithLogger sets the harness logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// Harness is the controller surface over the three scenarios.
type Harness struct {
	rt      Runtime
	state   *HarnessState
	monitor *LivenessMonitor
	goal    *GoalDetector
	sink    Sink
	onError func()
	onGoal  func()
	logger  *logging.Logger

	mu  sync.Mutex
	set *TaskSet
}

// New creates a stopped harness on rt.
func New(rt Runtime, opts ...Option) *Harness {
	h := &Harness{
		rt:     rt,
		state:  &HarnessState{},
		sink:   discardSink{},
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("harness")
	h.monitor = NewLivenessMonitor(h.state)
	h.goal = NewGoalDetector(GoalValue, h.goalReached)
	return h
}

func (h *Harness) goalReached() {
	h.logger.Info("goal reached", "target", GoalValue)
	if h.onGoal != nil {
		h.onGoal()
	}
}

func (h *Harness) reportError() {
	if h.onError != nil {
		h.onError()
	}
}

// StartAll builds the three scenarios, running the privileged tasks at
// priority. It fails with ErrInvalidPriority if priority is not above idle,
// ErrAlreadyStarted if tasks are running, and a fatal *errors.StartupError
// if a queue or task cannot be created.
func (h *Harness) StartAll(priority rtos.Priority) error {
	if priority <= rtos.PriorityIdle {
		return errors.Wrapf(errors.ErrInvalidPriority, "priority %d is not above idle", priority)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.set != nil {
		return errors.ErrAlreadyStarted
	}

	cfg := NewConfigurator(h.rt, h.state, h.goal, h.logger,
		WithSink(h.sink),
		WithErrorHook(h.reportError),
	)
	set, err := cfg.Build(priority)
	if err != nil {
		logError(h.logger, "start failed", err)
		return err
	}
	h.set = set
	h.logger.Info("harness started", "priority", int(priority), "tasks", len(set.tasks))
	return nil
}

// StopAll deletes all six tasks and waits for them to return. The returned
// set is owned by the caller; it is nil if the harness was not running.
func (h *Harness) StopAll() *TaskSet {
	h.mu.Lock()
	set := h.set
	h.set = nil
	h.mu.Unlock()

	if set == nil {
		return nil
	}
	set.StopAll()
	h.logger.Info("harness stopped")
	return set
}

// Running reports whether the tasks have been started and not stopped.
func (h *Harness) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.set != nil
}

// PollLiveness reports whether all six counters advanced since the last poll.
func (h *Harness) PollLiveness() bool {
	return h.monitor.Poll()
}

// PollReport is PollLiveness with per-counter detail.
func (h *Harness) PollReport() LivenessReport {
	return h.monitor.PollReport()
}

// PrintCounters writes one "name: count" line per task.
func (h *Harness) PrintCounters(w io.Writer) error {
	counts := h.state.Counts()
	for i, sc := range scenarios {
		if _, err := fmt.Fprintf(w, "%s: %d\n", sc.Producer.Name, counts.Producers[i]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s: %d\n", sc.Consumer.Name, counts.Consumers[i]); err != nil {
			return err
		}
	}
	return nil
}

// ResetCounters zeroes every progress counter and liveness snapshot. Error
// flags are sticky and survive a reset.
func (h *Harness) ResetCounters() {
	h.state.reset()
	h.monitor.reset()
	h.logger.Debug("counters reset")
}

// Counts returns the current counter values.
func (h *Harness) Counts() Counts {
	return h.state.Counts()
}

// GoalCount returns how many times the goal callback has fired.
func (h *Harness) GoalCount() int {
	return h.goal.Fired()
}

// TaskStatus describes one task for reports and the dashboard.
type TaskStatus struct {
	Name          string
	Scenario      int
	Role          Role
	Priority      int
	State         string
	Count         uint16
	ErrorOccurred bool
	QueueLen      int
	QueueCap      int
}

// Snapshot returns the status of every task in creation order, or nil if
// the harness is not running.
func (h *Harness) Snapshot() []TaskStatus {
	h.mu.Lock()
	set := h.set
	h.mu.Unlock()
	if set == nil {
		return nil
	}

	out := make([]TaskStatus, 0, len(set.tasks))
	for _, t := range set.tasks {
		out = append(out, TaskStatus{
			Name:          t.worker.Name(),
			Scenario:      t.scenario,
			Role:          t.role,
			Priority:      int(t.priority),
			State:         t.handle.State(),
			Count:         t.counter.Load(),
			ErrorOccurred: t.worker.ErrorOccurred(),
			QueueLen:      t.queue.Len(),
			QueueCap:      t.queue.Cap(),
		})
	}
	return out
}
