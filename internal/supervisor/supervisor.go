// Package supervisor polls harness liveness on a fixed cadence and turns the
// harness error and goal callbacks into events.
//
// The core types are:
//
//   - [Supervisor]: owns the poll loop and the callback counters
//   - [Status]: a snapshot of everything the supervisor has observed
//
// # Usage
//
//	sup := supervisor.New(bus, supervisor.WithInterval(time.Second))
//	h := blockq.New(rt,
//	    blockq.WithErrorCallback(sup.ReportError),
//	    blockq.WithGoalCallback(sup.ReportGoal),
//	)
//	sup.OnStatus(func(s supervisor.Status) {
//	    log.Printf("poll %d live=%v", s.Polls, s.LastLive)
//	})
//	go sup.Start(ctx, h)
//	defer sup.Stop()
package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/blockq/internal/blockq"
	"github.com/Iron-Ham/blockq/internal/event"
	"github.com/Iron-Ham/blockq/internal/logging"
)

// DefaultInterval is the default time between liveness polls.
const DefaultInterval = 2 * time.Second

// Poller is the harness surface the supervisor polls.
type Poller interface {
	PollReport() blockq.LivenessReport
}

// Status is a snapshot of the supervisor's observations.
type Status struct {
	Polls       int64
	FailedPolls int64
	Errors      int64
	GoalCount   int64
	LastLive    bool
	LastStalled []string
	LastPoll    time.Time
}

// Healthy reports whether no task error has been seen and the last poll, if
// any, found every counter advancing.
func (s Status) Healthy() bool {
	return s.Errors == 0 && (s.Polls == 0 || s.LastLive)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the supervisor logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// Supervisor polls liveness periodically and counts task errors and goals.
type Supervisor struct {
	bus      *event.Bus
	interval time.Duration
	logger   *logging.Logger

	errors atomic.Int64
	goals  atomic.Int64

	goalOnce sync.Once
	goalCh   chan struct{}

	mu       sync.Mutex
	handlers []func(Status)
	cancel   context.CancelFunc
	polls    int64
	failed   int64
	lastLive bool
	stalled  []string
	lastPoll time.Time
}

// New creates a supervisor publishing on bus.
func New(bus *event.Bus, opts ...Option) *Supervisor {
	s := &Supervisor{
		bus:      bus,
		interval: DefaultInterval,
		logger:   logging.NopLogger(),
		goalCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("supervisor")
	return s
}

// Interval returns the poll interval.
func (s *Supervisor) Interval() time.Duration { return s.interval }

// OnStatus registers a callback invoked after every poll. Multiple handlers
// may be registered.
func (s *Supervisor) OnStatus(handler func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// ReportError is the harness error callback. It runs inside a task and
// only counts and publishes.
func (s *Supervisor) ReportError() {
	total := s.errors.Add(1)
	s.bus.Publish(event.NewTaskErrorEvent(total))
}

// ReportGoal is the harness goal callback.
func (s *Supervisor) ReportGoal() {
	count := s.goals.Add(1)
	s.goalOnce.Do(func() { close(s.goalCh) })
	s.bus.Publish(event.NewGoalReachedEvent(blockq.GoalValue, count))
}

// GoalReached is closed the first time the goal callback runs.
func (s *Supervisor) GoalReached() <-chan struct{} {
	return s.goalCh
}

// Start polls p every interval until ctx is cancelled or Stop is called.
// It blocks.
func (s *Supervisor) Start(ctx context.Context, p Poller) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug("supervisor started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Poll(p)
		}
	}
}

// Stop cancels a running Start.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Poll runs one liveness check, publishes the result and notifies the
// status handlers.
func (s *Supervisor) Poll(p Poller) Status {
	r := p.PollReport()
	stalled := r.Stalled()

	s.mu.Lock()
	s.polls++
	if !r.Live {
		s.failed++
	}
	s.lastLive = r.Live
	s.stalled = stalled
	s.lastPoll = time.Now()
	poll := s.polls
	handlers := make([]func(Status), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	if r.Live {
		s.logger.Debug("liveness ok", "poll", poll)
	} else {
		s.logger.Warn("liveness check failed", "poll", poll, "stalled", stalled)
	}
	s.bus.Publish(event.NewLivenessCheckedEvent(poll, r.Live, stalled))

	status := s.Status()
	for _, h := range handlers {
		h(status)
	}
	return status
}

// Status returns the current observations.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Polls:       s.polls,
		FailedPolls: s.failed,
		Errors:      s.errors.Load(),
		GoalCount:   s.goals.Load(),
		LastLive:    s.lastLive,
		LastStalled: append([]string(nil), s.stalled...),
		LastPoll:    s.lastPoll,
	}
}
