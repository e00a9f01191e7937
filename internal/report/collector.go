package report

import (
	"context"
	"sync"
)

// Collector keeps every event in memory. Used by the compute command and tests.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Report(_ context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// Events returns a copy of what was collected.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Reset drops everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// Of returns the collected events of type T.
func Of[T Event](c *Collector) []T {
	var out []T
	for _, ev := range c.Events() {
		if v, ok := ev.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
