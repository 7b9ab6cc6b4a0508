package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant a StepClock reports by default.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock is a fake wall clock that advances by a fixed step on every
// call to Now. It stands in for time.Now where snapshot timestamps must be
// reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepClock creates a clock starting at Epoch that advances one second
// per call.
func NewStepClock() *StepClock {
	return &StepClock{next: Epoch, step: time.Second}
}

// Now returns the current fake instant and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// Reset rewinds the clock to Epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = Epoch
}
