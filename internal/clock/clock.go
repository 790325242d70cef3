// Package clock abstracts the wall clock so run timing can be tested
// deterministically. Speed map results never depend on it; only the
// durations reported to logs and metrics do.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually driven Clock for tests. It is safe for concurrent use.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

// NewMockClock creates a MockClock set to t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Advance moves the clock by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// Stopwatch measures elapsed time against a Clock.
type Stopwatch struct {
	clock   Clock
	started time.Time
}

// StartStopwatch starts timing now. A nil clock means RealClock.
func StartStopwatch(c Clock) *Stopwatch {
	if c == nil {
		c = RealClock{}
	}
	return &Stopwatch{clock: c, started: c.Now()}
}

// Started returns when the stopwatch was started.
func (s *Stopwatch) Started() time.Time {
	return s.started
}

// Elapsed returns the time since the stopwatch was started.
func (s *Stopwatch) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.started)
}
