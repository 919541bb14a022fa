// Package display provides the message sink tasks use to report start-up
// and diagnostic text.
//
// Display never blocks the caller. Messages are queued on a buffered channel
// and written by a single printer goroutine; when the buffer is full the
// message is dropped and counted. The most recent printed messages are kept
// for the dashboard.
package display

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/blockq/internal/logging"
)

// Config holds configuration options for the Sink.
type Config struct {
	// BufferSize is how many messages may wait for the printer.
	BufferSize int

	// History is how many printed messages Recent can return.
	History int
}

// DefaultConfig returns sensible defaults for display configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: 64,
		History:    50,
	}
}

// Sink is a fire-and-forget message printer.
type Sink struct {
	out    io.Writer
	logger *logging.Logger

	mu     sync.RWMutex // guards closed against sends on msgs
	closed bool
	msgs   chan string

	histMu  sync.Mutex
	history []string
	limit   int

	printed atomic.Int64
	dropped atomic.Int64

	wg        conc.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts a sink writing one line per message to out. A nil out keeps
// only the history.
func New(out io.Writer, cfg Config, logger *logging.Logger) *Sink {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.History <= 0 {
		cfg.History = def.History
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	s := &Sink{
		out:    out,
		logger: logger.WithComponent("display"),
		msgs:   make(chan string, cfg.BufferSize),
		limit:  cfg.History,
	}
	s.wg.Go(s.print)
	return s
}

// Display queues msg for output. It returns immediately; if the buffer is
// full or the sink is closed the message is dropped.
func (s *Sink) Display(msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.msgs <- msg:
	default:
		s.dropped.Add(1)
	}
}

func (s *Sink) print() {
	for msg := range s.msgs {
		if _, err := fmt.Fprintln(s.out, msg); err != nil {
			s.logger.Warn("display write failed", "error", err)
		}
		s.printed.Add(1)
		s.remember(msg)
	}
}

func (s *Sink) remember(msg string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history = append(s.history, msg)
	if over := len(s.history) - s.limit; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
}

// Recent returns up to n of the most recently printed messages, oldest
// first. n <= 0 returns the whole history.
func (s *Sink) Recent(n int) []string {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}
	return append([]string(nil), s.history[len(s.history)-n:]...)
}

// Printed returns how many messages have been written.
func (s *Sink) Printed() int64 { return s.printed.Load() }

// Dropped returns how many messages were discarded.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Close stops accepting messages, prints what is queued and waits for the
// printer to exit. It is safe to call more than once.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.msgs)
		s.mu.Unlock()

		if r := s.wg.WaitAndRecover(); r != nil {
			s.closeErr = fmt.Errorf("display printer panicked: %v", r.Value)
		}
		if dropped := s.dropped.Load(); dropped > 0 {
			s.logger.Warn("display messages dropped", "count", dropped)
		}
	})
	return s.closeErr
}
