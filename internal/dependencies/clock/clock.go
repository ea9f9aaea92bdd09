package clock

import "time"

// Clock is the time source for engine event timestamps and persisted game
// times. Tests use mocks.MockClock to pin it.
type Clock interface {
	Now() time.Time
	// Since returns the time elapsed since t according to this clock
	Since(t time.Time) time.Duration
}

// System reads the wall clock, always in UTC
type System struct{}

// New creates a System clock
func New() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now().UTC()
}

func (s System) Since(t time.Time) time.Duration {
	return s.Now().Sub(t)
}
