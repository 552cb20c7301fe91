package core

import "time"

// Clock supplies wall-clock time to converters that stamp reports.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant. Handy for tests.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
