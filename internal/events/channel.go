package events

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Next once the channel is closed and drained
var ErrClosed = errors.New("event channel closed")

// Channel is an unbounded FIFO queue of events for one producer and one
// consumer. Send never blocks and never drops an event.
type Channel struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	notify chan struct{}
}

// NewChannel creates an empty channel
func NewChannel() *Channel {
	return &Channel{notify: make(chan struct{}, 1)}
}

// Send appends ev. It reports false if the channel is already closed.
func (c *Channel) Send(ev Event) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	c.wake()
	return true
}

// Next blocks until an event is available, the channel is closed and
// drained, or ctx is done.
func (c *Channel) Next(ctx context.Context) (Event, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			ev := c.queue[0]
			c.queue[0] = Event{}
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return ev, nil
		}
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return Event{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-c.notify:
		}
	}
}

// Len returns the number of queued events
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close stops accepting events. Queued events can still be received.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wake()
}

func (c *Channel) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
