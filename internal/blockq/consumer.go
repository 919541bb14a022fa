package blockq

import (
	"context"
	"sync/atomic"

	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/logging"
)

// Consumer receives values from its queue and checks they arrive in
// sequence.
type Consumer struct {
	name     string
	scenario int
	params   TaskParameters
	cfg      taskConfig
	logger   *logging.Logger

	expected uint16 // next value expected; owned by the running task
	errored  atomic.Bool
}

// NewConsumer creates a consumer for the 1-based scenario number.
func NewConsumer(name string, scenario int, params TaskParameters, opts ...TaskOption) *Consumer {
	cfg := newTaskConfig(opts)
	return &Consumer{
		name:     name,
		scenario: scenario,
		params:   params,
		cfg:      cfg,
		logger:   cfg.logger.WithTask(name).WithScenario(scenario),
		expected: cfg.seed,
	}
}

// Name returns the task name.
func (c *Consumer) Name() string { return c.name }

// ErrorOccurred reports whether an out-of-sequence value has ever been
// received. Once set, the consumer's counter no longer advances.
func (c *Consumer) ErrorOccurred() bool { return c.errored.Load() }

// Run announces the consumer and loops until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	c.cfg.sink.Display(MsgConsumerStarted)
	c.logger.Debug("consumer started", "seed", c.expected)
	for {
		err := c.Step(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			continue
		}
		if errors.Is(err, errors.ErrSequenceMismatch) {
			logError(c.logger, "sequence mismatch", err)
			continue
		}
		logError(c.logger, "consumer stopped", err)
		return
	}
}

// Step performs one receive attempt. A timeout is not an error. A value
// other than the expected one flags the consumer, resynchronises to the
// received value and returns a *errors.TaskError wrapping
// ErrSequenceMismatch.
func (c *Consumer) Step(ctx context.Context) error {
	v, err := c.params.Queue.Receive(ctx, c.params.BlockTime)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.IsTimeout(err) {
			return nil
		}
		return err
	}

	var result error
	if v != c.expected {
		c.cfg.sink.Display(MsgSequenceMismatch)
		result = errors.NewTaskError(c.name, errors.ErrSequenceMismatch).
			WithScenario(c.scenario).
			WithValues(c.expected, v)
		c.expected = v
		c.errored.Store(true)
		c.cfg.onError()
	} else if !c.errored.Load() {
		n := c.params.Counter.inc()
		if c.cfg.goal != nil {
			c.cfg.goal.Observe(n)
		}
	}

	c.expected++
	return result
}
