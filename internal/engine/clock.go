package engine

import "time"

// Clock stamps run start and finish times and measures validator durations.
// Tests inject a deterministic clock so recorded runs are reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
