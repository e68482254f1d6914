package testutil

import "sync"

// DeterministicClock is a thread-safe logical clock for tests.
//
// Each call to Now returns the previous value plus Step, so revisions
// written one after another get strictly increasing timestamps and the
// same scenario always produces the same records (and hashes).
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	now  int64
	step int64
}

// NewDeterministicClock creates a clock starting at 0 that advances by 1.
//
// The first call to Now() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{step: 1}
}

// NewDeterministicClockAt creates a clock starting at start that advances
// by step on every call to Now.
func NewDeterministicClockAt(start, step int64) *DeterministicClock {
	if step <= 0 {
		step = 1
	}
	return &DeterministicClock{now: start, step: step}
}

// Now advances the clock and returns the new time.
func (c *DeterministicClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the current time without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t; the next Now() returns t+step.
// Tests use it to stage concurrent writers that observe the same time.
func (c *DeterministicClock) Set(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Reset resets the clock to 0.
func (c *DeterministicClock) Reset() {
	c.Set(0)
}
