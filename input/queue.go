package input

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCapacity is the queue size used when none is given.
const DefaultCapacity = 8

// Pop timeouts.
const (
	Forever time.Duration = -1
	NoWait  time.Duration = 0
)

// ErrQueueFull is returned when an event could not be queued in time.
var ErrQueueFull = errors.New("input queue full")

// Queue is a bounded FIFO of key events. Any number of goroutines may push;
// one goroutine pops.
type Queue struct {
	ch chan Event
}

// NewQueue creates a queue holding up to capacity events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// Push queues ev, waiting for a free slot while the queue is full. If ctx
// ends first the event is not queued and the error wraps ErrQueueFull.
func (q *Queue) Push(ctx context.Context, ev Event) error {
	select {
	case q.ch <- ev:
		return nil
	default:
	}
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrQueueFull, ev, ctx.Err())
	}
}

// TryPush queues ev only if a slot is free.
func (q *Queue) TryPush(ev Event) error {
	select {
	case q.ch <- ev:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, ev)
	}
}

// Pop returns the oldest event, waiting up to timeout for one. Forever waits
// without limit and NoWait returns at once.
func (q *Queue) Pop(timeout time.Duration) (Event, bool) {
	switch {
	case timeout < 0:
		ev := <-q.ch
		return ev, true
	case timeout == 0:
		select {
		case ev := <-q.ch:
			return ev, true
		default:
			return Event{}, false
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev := <-q.ch:
		return ev, true
	case <-t.C:
		return Event{}, false
	}
}

// C returns the receive side of the queue for use in a select.
func (q *Queue) C() <-chan Event {
	return q.ch
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
