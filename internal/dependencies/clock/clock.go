package clock

import "time"

// Precision matches the millisecond timestamps stored by the SQLite backend
const Precision = time.Millisecond

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current UTC time truncated to Precision
func (c *RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(Precision)
}
