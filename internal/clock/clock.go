// Package clock abstracts wall time so harvest timestamps are testable.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Fixed always returns the same instant.
type Fixed time.Time

// Now returns t.
func (f Fixed) Now() time.Time { return time.Time(f) }
