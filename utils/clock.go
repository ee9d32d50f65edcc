package utils

import "time"

// Clock abstracts wall-clock access so periodic jobs can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return UTCNow() }
