package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/blacknand/AlgoPulse/pkg/exception"
)

const minRingSize = 16

// OverflowPolicy decides what Push does when a bounded queue is full.
type OverflowPolicy uint8

const (
	// OverflowBlock makes Push wait until a slot frees up or the queue closes.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropOldest evicts the head to make room for the new item.
	OverflowDropOldest
	// OverflowReject makes Push fail with exception.ErrQueueFull.
	OverflowReject
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBlock:
		return "block"
	case OverflowDropOldest:
		return "drop-oldest"
	case OverflowReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy maps a config string to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, bool) {
	switch s {
	case "", "block":
		return OverflowBlock, true
	case "drop-oldest":
		return OverflowDropOldest, true
	case "reject":
		return OverflowReject, true
	default:
		return 0, false
	}
}

// State is the queue lifecycle: Open -> Closing -> Closed.
type State uint8

const (
	StateOpen State = iota
	// StateClosing means Close was called but items are still poppable.
	StateClosing
	// StateClosed means the queue is closed and drained.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Option configures a Queue. Capacity 0 means unbounded and Overflow is ignored.
type Option struct {
	Capacity int
	Overflow OverflowPolicy
}

// Queue is a FIFO hand-off between one producer and one consumer goroutine.
// All state is guarded by mu; consumers park on notEmpty instead of spinning.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []T
	head     int
	size     int
	capacity int
	policy   OverflowPolicy
	closed   bool

	dropped atomic.Uint64
}

// NewQueue allocates a queue. A negative capacity is treated as unbounded.
func NewQueue[T any](opt Option) *Queue[T] {
	capacity := opt.Capacity
	if capacity < 0 {
		capacity = 0
	}
	ring := minRingSize
	if capacity > 0 {
		ring = capacity
	}
	q := &Queue[T]{
		buf:      make([]T, ring),
		capacity: capacity,
		policy:   opt.Overflow,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push enqueues v. It returns exception.ErrQueueClosed once Close has been called,
// and exception.ErrQueueFull when bounded with OverflowReject.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return exception.ErrQueueClosed
		}
		if q.capacity == 0 || q.size < q.capacity {
			if q.size == len(q.buf) {
				q.grow()
			}
			q.buf[(q.head+q.size)%len(q.buf)] = v
			q.size++
			q.notEmpty.Signal()
			return nil
		}
		switch q.policy {
		case OverflowBlock:
			q.notFull.Wait()
		case OverflowDropOldest:
			q.take()
			q.dropped.Add(1)
		default:
			return exception.ErrQueueFull
		}
	}
}

// Pop blocks until an item is available or the queue is closed and drained.
// ok is false only in the latter case.
func (q *Queue[T]) Pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.size > 0 {
			return q.take(), true
		}
		if q.closed {
			return v, false
		}
		q.notEmpty.Wait()
	}
}

// PopContext is Pop that also gives up when ctx is done.
// It returns exception.ErrQueueClosed once the queue is closed and drained.
func (q *Queue[T]) PopContext(ctx context.Context) (v T, err error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.size > 0 {
			return q.take(), nil
		}
		if q.closed {
			return v, exception.ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return v, err
		}
		q.notEmpty.Wait()
	}
}

// TryPop dequeues without blocking.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return v, false
	}
	return q.take(), true
}

// Close moves the queue to Closing. Queued items stay poppable; once drained,
// every blocked and future Pop reports closed. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

func (q *Queue[T]) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case !q.closed:
		return StateOpen
	case q.size > 0:
		return StateClosing
	default:
		return StateClosed
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Dropped returns how many items OverflowDropOldest has evicted.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

// take removes the head. Caller holds mu and guarantees size > 0.
func (q *Queue[T]) take() T {
	var zero T
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.notFull.Signal()
	return v
}

// grow doubles the ring, unwrapping it so head lands at 0. Caller holds mu.
func (q *Queue[T]) grow() {
	next := make([]T, len(q.buf)*2)
	n := copy(next, q.buf[q.head:])
	copy(next[n:], q.buf[:q.head])
	q.buf = next
	q.head = 0
}
