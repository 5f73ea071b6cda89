// Package clock provides time abstraction for testing and production use.
// It also knows how the departure board picks its default start time: the
// current wall-clock time in the transit zone, floored to a five minute grid.
package clock

import (
	"sync"
	"time"
	_ "time/tzdata"
)

// DepartureStep is the grid the default departure time is aligned to.
const DepartureStep = 5 * time.Minute

// Clock provides an abstraction for time operations.
// Use RealClock in production and MockClock in tests.
type Clock interface {
	// Now returns the current time
	Now() time.Time
}

// RealClock implements Clock using actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock implements Clock and provides a controllable, thread-safe time for tests.
type MockClock struct {
	currentTime time.Time
	mu          sync.Mutex
}

// NewMockClock creates a new MockClock set to the specified time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mock clock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Set changes the mock clock's current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves the mock clock by the specified duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// FloorToStep drops seconds and sub-seconds from t and rounds its minute down
// to a multiple of step, keeping t's location. Steps that are not a whole
// number of minutes only truncate to the minute.
func FloorToStep(t time.Time, step time.Duration) time.Time {
	minutes := int(step / time.Minute)
	minute := t.Minute()
	if minutes > 1 {
		minute -= minute % minutes
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}

// DefaultDeparture returns the board's default start time: now in loc,
// floored to DepartureStep.
func DefaultDeparture(c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return FloorToStep(c.Now().In(loc), DepartureStep)
}

// LoadLocationWithUTCFallBack loads the named zone, falling back to UTC when
// the zone database does not know it.
func LoadLocationWithUTCFallBack(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}
