package processor

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is how often presentation layers poll a Channel.
const DefaultPollInterval = 50 * time.Millisecond

// Channel is an unbounded FIFO of session events: many producers, one
// consumer. Push never blocks and Poll returns immediately when empty.
type Channel struct {
	mu    sync.Mutex
	queue []Event
}

func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) Push(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	c.mu.Lock()
	c.queue = append(c.queue, e)
	c.mu.Unlock()
}

// Poll pops the oldest event, if any.
func (c *Channel) Poll() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Event{}, false
	}
	e := c.queue[0]
	c.queue[0] = Event{}
	c.queue = c.queue[1:]
	return e, true
}

// Drain pops every queued event in arrival order.
func (c *Channel) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queue
	c.queue = nil
	return out
}

func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Channel) log(text string) {
	c.Push(Event{Kind: EventLog, Text: text})
}

// Follow polls ch every interval, passing each event to fn, until a terminal
// event arrives (which is also passed to fn and returned) or ctx is done.
func Follow(ctx context.Context, ch *Channel, interval time.Duration, fn func(Event)) (Event, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, e := range ch.Drain() {
			if fn != nil {
				fn(e)
			}
			if e.Terminal() {
				return e, nil
			}
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
