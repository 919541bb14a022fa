package blockq

import "github.com/Iron-Ham/blockq/internal/logging"

const (
	// SeedValue is the first sequence value every producer sends and every
	// consumer expects.
	SeedValue uint16 = 303

	// GoalValue is the scenario 1 consumer count that triggers the goal
	// callback.
	GoalValue uint16 = 3000
)

// Display messages queued to the sink.
const (
	MsgProducerStarted  = "Blocking queue producer started."
	MsgConsumerStarted  = "Blocking queue consumer started."
	MsgSendFailed       = "Could not post on blocking queue"
	MsgSequenceMismatch = "Incorrect value received on blocking queue"
)

// Sink accepts display messages. Display must not block the caller.
type Sink interface {
	Display(msg string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msg string)

// Display calls f(msg).
func (f SinkFunc) Display(msg string) { f(msg) }

type discardSink struct{}

func (discardSink) Display(string) {}

// taskConfig holds the collaborators shared by producer and consumer tasks.
type taskConfig struct {
	seed    uint16
	sink    Sink
	onError func()
	goal    *GoalDetector
	logger  *logging.Logger
}

func newTaskConfig(opts []TaskOption) taskConfig {
	cfg := taskConfig{
		seed:    SeedValue,
		sink:    discardSink{},
		onError: func() {},
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// TaskOption configures a Producer or Consumer.
type TaskOption func(*taskConfig)

// WithSeed overrides the initial sequence value.
func WithSeed(seed uint16) TaskOption {
	return func(c *taskConfig) { c.seed = seed }
}

// WithSink sets where start and diagnostic messages are queued.
func WithSink(s Sink) TaskOption {
	return func(c *taskConfig) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithErrorHook sets the callback invoked on every send failure or sequence
// mismatch.
func WithErrorHook(fn func()) TaskOption {
	return func(c *taskConfig) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// WithGoal makes a consumer report its counter to g. Producers ignore it.
func WithGoal(g *GoalDetector) TaskOption {
	return func(c *taskConfig) { c.goal = g }
}

// WithTaskLogger sets the task logger.
func WithTaskLogger(l *logging.Logger) TaskOption {
	return func(c *taskConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
