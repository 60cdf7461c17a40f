package core

import "errors"

// DefaultQueueSize matches the small inbox of the reference firmware.
const DefaultQueueSize = 3

// ErrQueueFull is returned by TryPut when the inbox has no free slot.
var ErrQueueFull = errors.New("queue full")

// QueueFullMessage is reported to the peer whose message was dropped.
const QueueFullMessage = "Queue full, message discarded."

// Queue is the bounded FIFO of text commands handed from the transports to the scheduler.
// TryPut never blocks, so it is safe to call from transport callbacks.
type Queue struct {
	ch chan string
}

// NewQueue creates a queue holding at most size commands.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan string, size)}
}

// TryPut enqueues msg or fails with ErrQueueFull.
func (q *Queue) TryPut(msg string) error {
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Out is the consumer side of the queue.
func (q *Queue) Out() <-chan string {
	return q.ch
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Submit enqueues a command received from a peer and reports an overflow back through n.
func Submit(q *Queue, n Notifier, msg string) bool {
	if err := q.TryPut(msg); err != nil {
		if n != nil {
			n.Notify(QueueFullMessage)
		}
		return false
	}
	return true
}
