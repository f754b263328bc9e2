package mock

import (
	"context"
	"sync"
	"time"
)

// MockClock is a controllable clock. Sleep advances the virtual time by the
// requested duration and returns immediately.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
	slept   time.Duration
	sleeps  int
}

// NewMockClock creates a new mock clock initialized to the given time.
// If t is zero, the clock is initialized to the current time.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Now()
	}
	return &MockClock{current: t}
}

// Now returns the current time according to this mock clock.
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Sleep advances the clock by d unless ctx is already done.
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.current = m.current.Add(d)
		m.slept += d
	}
	m.sleeps++
	return nil
}

// Slept returns the total virtual time spent in Sleep.
func (m *MockClock) Slept() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slept
}

// Sleeps returns how many times Sleep was called.
func (m *MockClock) Sleeps() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sleeps
}

// Advance moves the clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// Set sets the clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}
