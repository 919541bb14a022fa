package rtos

import (
	"context"
	"fmt"
	"time"

	"github.com/Iron-Ham/blockq/internal/errors"
)

// MaxQueueCapacity is the largest queue the kernel will allocate.
const MaxQueueCapacity = 1 << 16

// Queue is a bounded FIFO shared by kernel tasks. Send and Receive block the
// calling task for at most the given timeout; a zero timeout never blocks.
// Queue state is guarded by the owning kernel's lock.
type Queue[T any] struct {
	k         *Kernel
	buf       []T
	head      int
	count     int
	senders   waitList
	receivers waitList
}

// NewQueue allocates a queue holding up to capacity items.
func NewQueue[T any](k *Kernel, capacity int) (*Queue[T], error) {
	if capacity <= 0 || capacity > MaxQueueCapacity {
		return nil, fmt.Errorf("%w: capacity %d", errors.ErrQueueCreate, capacity)
	}
	k.mu.Lock()
	closed := k.closed
	k.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("%w: %w", errors.ErrQueueCreate, errors.ErrKernelClosed)
	}
	return &Queue[T]{k: k, buf: make([]T, capacity)}, nil
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.k.mu.Lock()
	defer q.k.mu.Unlock()
	return q.count
}

// Send appends item to the back of the queue. If the queue is full the
// calling task blocks until space frees up or timeout elapses, in which case
// ErrQueueFull is returned. Waking a higher-priority receiver preempts the
// caller before Send returns.
func (q *Queue[T]) Send(ctx context.Context, item T, timeout time.Duration) error {
	t, err := q.k.current(ctx)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(timeout)

	q.k.mu.Lock()
	var result error
	for {
		if err := t.aliveLocked(); err != nil {
			q.k.mu.Unlock()
			return err
		}
		if q.count < len(q.buf) {
			q.buf[(q.head+q.count)%len(q.buf)] = item
			q.count++
			q.k.wakeLocked(&q.receivers)
			break
		}
		remaining := time.Until(deadline)
		if timeout <= 0 || remaining <= 0 {
			result = errors.ErrQueueFull
			break
		}
		timedOut, err := q.k.blockLocked(t, &q.senders, remaining)
		if err != nil {
			q.k.mu.Unlock()
			return err
		}
		if timedOut && q.count == len(q.buf) {
			result = errors.ErrQueueFull
			break
		}
	}
	q.k.mu.Unlock()

	if err := q.k.preemptionPoint(t); err != nil {
		return err
	}
	return result
}

// Receive removes the item at the front of the queue. If the queue is empty
// the calling task blocks until an item arrives or timeout elapses, in which
// case ErrQueueEmpty is returned. Waking a higher-priority sender preempts
// the caller before Receive returns.
func (q *Queue[T]) Receive(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T
	t, err := q.k.current(ctx)
	if err != nil {
		return zero, err
	}
	deadline := time.Now().Add(timeout)

	q.k.mu.Lock()
	var (
		item   T
		result error
	)
	for {
		if err := t.aliveLocked(); err != nil {
			q.k.mu.Unlock()
			return zero, err
		}
		if q.count > 0 {
			item = q.buf[q.head]
			q.buf[q.head] = zero
			q.head = (q.head + 1) % len(q.buf)
			q.count--
			q.k.wakeLocked(&q.senders)
			break
		}
		remaining := time.Until(deadline)
		if timeout <= 0 || remaining <= 0 {
			result = errors.ErrQueueEmpty
			break
		}
		timedOut, err := q.k.blockLocked(t, &q.receivers, remaining)
		if err != nil {
			q.k.mu.Unlock()
			return zero, err
		}
		if timedOut && q.count == 0 {
			result = errors.ErrQueueEmpty
			break
		}
	}
	q.k.mu.Unlock()

	if err := q.k.preemptionPoint(t); err != nil {
		return zero, err
	}
	if result != nil {
		return zero, result
	}
	return item, nil
}

// Waiting returns the number of tasks blocked sending and receiving.
func (q *Queue[T]) Waiting() (senders, receivers int) {
	q.k.mu.Lock()
	defer q.k.mu.Unlock()
	return q.senders.len(), q.receivers.len()
}
