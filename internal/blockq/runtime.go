package blockq

import (
	"context"
	"time"

	"github.com/Iron-Ham/blockq/internal/rtos"
)

// Queue is a bounded FIFO of sequence values shared by one producer and one
// consumer.
type Queue interface {
	Send(ctx context.Context, v uint16, timeout time.Duration) error
	Receive(ctx context.Context, timeout time.Duration) (uint16, error)
	Len() int
	Cap() int
}

// TaskHandle is a running task as seen by the controller.
type TaskHandle interface {
	Name() string
	State() string
	// Delete terminates the task without waiting for it.
	Delete()
	// Done is closed once the task has returned.
	Done() <-chan struct{}
}

// Runtime is the scheduler and queue allocator the scenarios are built on.
type Runtime interface {
	CreateQueue(capacity int) (Queue, error)
	CreateTask(name string, prio rtos.Priority, entry rtos.TaskFunc) (TaskHandle, error)
}

// TaskParameters is the fixed configuration handed to one task.
type TaskParameters struct {
	Queue     Queue
	BlockTime time.Duration
	Counter   *Counter
}

type kernelRuntime struct {
	k *rtos.Kernel
}

// NewRuntime adapts an rtos kernel to the Runtime interface.
func NewRuntime(k *rtos.Kernel) Runtime {
	return &kernelRuntime{k: k}
}

func (r *kernelRuntime) CreateQueue(capacity int) (Queue, error) {
	q, err := rtos.NewQueue[uint16](r.k, capacity)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *kernelRuntime) CreateTask(name string, prio rtos.Priority, entry rtos.TaskFunc) (TaskHandle, error) {
	t, err := r.k.CreateTask(name, prio, entry)
	if err != nil {
		return nil, err
	}
	return t, nil
}
