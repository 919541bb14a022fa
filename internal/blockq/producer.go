package blockq

import (
	"context"
	"sync/atomic"

	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/logging"
)

// Producer posts an increasing sequence of values to its queue.
type Producer struct {
	name     string
	scenario int
	params   TaskParameters
	cfg      taskConfig
	logger   *logging.Logger

	expected uint16 // next value to send; owned by the running task
	errored  atomic.Bool
}

// NewProducer creates a producer for the 1-based scenario number.
func NewProducer(name string, scenario int, params TaskParameters, opts ...TaskOption) *Producer {
	cfg := newTaskConfig(opts)
	return &Producer{
		name:     name,
		scenario: scenario,
		params:   params,
		cfg:      cfg,
		logger:   cfg.logger.WithTask(name).WithScenario(scenario),
		expected: cfg.seed,
	}
}

// Name returns the task name.
func (p *Producer) Name() string { return p.name }

// ErrorOccurred reports whether a send has ever failed. Once set, the
// producer's counter no longer advances.
func (p *Producer) ErrorOccurred() bool { return p.errored.Load() }

// Run announces the producer and loops until ctx is cancelled.
func (p *Producer) Run(ctx context.Context) {
	p.cfg.sink.Display(MsgProducerStarted)
	p.logger.Debug("producer started", "seed", p.expected)
	for {
		err := p.Step(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			continue
		}
		if errors.Is(err, errors.ErrSendFailed) {
			logError(p.logger, "send failed", err)
			continue
		}
		logError(p.logger, "producer stopped", err)
		return
	}
}

// Step performs one send attempt. A failed send flags the producer and
// returns a *errors.TaskError wrapping ErrSendFailed; the sequence value is
// retried on the next step.
func (p *Producer) Step(ctx context.Context) error {
	err := p.params.Queue.Send(ctx, p.expected, p.params.BlockTime)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, errors.ErrNotTask) || errors.Is(err, errors.ErrKernelClosed) {
			return err
		}
		p.cfg.sink.Display(MsgSendFailed)
		p.errored.Store(true)
		p.cfg.onError()
		return errors.NewTaskError(p.name, errors.Wrapf(errors.ErrSendFailed, "value %d", p.expected)).
			WithScenario(p.scenario)
	}

	if !p.errored.Load() {
		p.params.Counter.inc()
	}
	p.expected++
	return nil
}
