package store

import (
	"sync"
	"time"
)

// Clock hands out write timestamps that never go backwards within one process,
// even when the wall clock does.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Stamp returns a UTC time at microsecond precision strictly after the previous stamp.
func (c *Clock) Stamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// Observe raises the floor so later stamps sort after a timestamp read from storage.
func (c *Clock) Observe(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.last) {
		c.last = t.UTC()
	}
}
