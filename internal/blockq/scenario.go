package blockq

import (
	"context"
	"time"

	"github.com/Iron-Ham/blockq/internal/errors"
	"github.com/Iron-Ham/blockq/internal/logging"
	"github.com/Iron-Ham/blockq/internal/rtos"
)

// Role distinguishes the two tasks of a scenario.
type Role int

const (
	RoleProducer Role = iota
	RoleConsumer
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// TaskSpec describes one task of a scenario.
type TaskSpec struct {
	Name string
	// Elevated tasks run at the priority passed to StartAll; the rest run at
	// idle priority.
	Elevated  bool
	BlockTime time.Duration
}

// Priority resolves the task priority for the given elevated level.
func (t TaskSpec) Priority(elevated rtos.Priority) rtos.Priority {
	if t.Elevated {
		return elevated
	}
	return rtos.PriorityIdle
}

// Scenario is one fixed producer/consumer pairing.
type Scenario struct {
	Number   int // 1-based
	Capacity int
	Producer TaskSpec
	Consumer TaskSpec
	// ProducerFirst controls task creation order.
	ProducerFirst bool
	// TracksGoal marks the scenario whose consumer drives the goal detector.
	TracksGoal bool
	Summary    string
}

const blockTime = 1000 * time.Millisecond

var scenarios = [NumScenarios]Scenario{
	{
		Number:     1,
		Capacity:   1,
		Producer:   TaskSpec{Name: "QProdB2", BlockTime: 0},
		Consumer:   TaskSpec{Name: "QConsB1", Elevated: true, BlockTime: blockTime},
		TracksGoal: true,
		Summary:    "consumer preempts as soon as an item arrives",
	},
	// The idle task never blocks and the elevated one waits up to blockTime,
	// so the elevated producer parks on a full queue until QConsB3 drains it.
	// Names number tasks in creation order, consumer first.
	{
		Number:   2,
		Capacity: 1,
		Producer: TaskSpec{Name: "QProdB4", Elevated: true, BlockTime: blockTime},
		Consumer: TaskSpec{Name: "QConsB3", BlockTime: 0},
		Summary:  "producer blocks on a full queue until the consumer drains it",
	},
	{
		Number:        3,
		Capacity:      5,
		Producer:      TaskSpec{Name: "QProdB5", BlockTime: blockTime},
		Consumer:      TaskSpec{Name: "QConsB6", BlockTime: blockTime},
		ProducerFirst: true,
		Summary:       "equal priorities share the CPU by time slicing",
	},
}

// Scenarios returns the fixed scenario table.
func Scenarios() []Scenario {
	out := make([]Scenario, NumScenarios)
	copy(out, scenarios[:])
	return out
}

// worker is the task body shared by producers and consumers.
type worker interface {
	Name() string
	ErrorOccurred() bool
	Run(ctx context.Context)
}

// runningTask is one task launched by the configurator.
type runningTask struct {
	scenario int
	role     Role
	priority rtos.Priority
	counter  *Counter
	queue    Queue
	worker   worker
	handle   TaskHandle
}

// TaskSet owns the six tasks and three queues of a started harness.
type TaskSet struct {
	tasks  []*runningTask
	queues [NumScenarios]Queue
}

// Names returns the task names in creation order.
func (s *TaskSet) Names() []string {
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.worker.Name()
	}
	return names
}

// StopAll deletes every task and waits for each to return. Tasks are
// deleted first so that none of them is woken by a peer's exit.
func (s *TaskSet) StopAll() {
	for _, t := range s.tasks {
		t.handle.Delete()
	}
	for _, t := range s.tasks {
		<-t.handle.Done()
	}
}

// Configurator builds the scenarios on a runtime.
type Configurator struct {
	rt     Runtime
	state  *HarnessState
	opts   []TaskOption
	goal   *GoalDetector
	logger *logging.Logger
}

// NewConfigurator creates a configurator. opts are applied to every task;
// goal is handed only to the goal-tracking consumer.
func NewConfigurator(rt Runtime, state *HarnessState, goal *GoalDetector, logger *logging.Logger, opts ...TaskOption) *Configurator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Configurator{
		rt:     rt,
		state:  state,
		opts:   opts,
		goal:   goal,
		logger: logger,
	}
}

// Build creates the three queues and six tasks. On any failure the tasks
// already created are deleted and a *errors.StartupError is returned.
func (c *Configurator) Build(elevated rtos.Priority) (*TaskSet, error) {
	set := &TaskSet{}
	for i, sc := range scenarios {
		if err := c.buildScenario(set, i, sc, elevated); err != nil {
			set.StopAll()
			return nil, err
		}
	}
	return set, nil
}

func (c *Configurator) buildScenario(set *TaskSet, i int, sc Scenario, elevated rtos.Priority) error {
	q, err := c.rt.CreateQueue(sc.Capacity)
	if err != nil {
		return errors.NewStartupError("create queue", err).WithScenario(sc.Number)
	}
	set.queues[i] = q

	taskOpts := append([]TaskOption{WithTaskLogger(c.logger)}, c.opts...)
	consumerOpts := taskOpts
	if sc.TracksGoal && c.goal != nil {
		consumerOpts = append(append([]TaskOption{}, taskOpts...), WithGoal(c.goal))
	}

	producer := &runningTask{
		scenario: sc.Number,
		role:     RoleProducer,
		priority: sc.Producer.Priority(elevated),
		counter:  &c.state.Producers[i],
		queue:    q,
	}
	producer.worker = NewProducer(sc.Producer.Name, sc.Number, TaskParameters{
		Queue:     q,
		BlockTime: sc.Producer.BlockTime,
		Counter:   producer.counter,
	}, taskOpts...)

	consumer := &runningTask{
		scenario: sc.Number,
		role:     RoleConsumer,
		priority: sc.Consumer.Priority(elevated),
		counter:  &c.state.Consumers[i],
		queue:    q,
	}
	consumer.worker = NewConsumer(sc.Consumer.Name, sc.Number, TaskParameters{
		Queue:     q,
		BlockTime: sc.Consumer.BlockTime,
		Counter:   consumer.counter,
	}, consumerOpts...)

	order := []*runningTask{consumer, producer}
	if sc.ProducerFirst {
		order = []*runningTask{producer, consumer}
	}
	for _, t := range order {
		h, err := c.rt.CreateTask(t.worker.Name(), t.priority, t.worker.Run)
		if err != nil {
			return errors.NewStartupError("create task", err).
				WithScenario(sc.Number).
				WithTask(t.worker.Name())
		}
		t.handle = h
		set.tasks = append(set.tasks, t)
		c.logger.Debug("task started",
			"task", t.worker.Name(),
			"scenario", sc.Number,
			"role", t.role.String(),
			"priority", int(t.priority))
	}
	return nil
}
