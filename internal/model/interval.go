package model

import "time"

// secondsPerDay bounds a clipped span; longer spans keep only the sub-day remainder.
const secondsPerDay = 24 * 60 * 60

// Interval is a half-open time span derived from a meeting.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Clip intersects the interval with the window [start, end].
func (i Interval) Clip(start, end time.Time) Interval {
	clipped := i
	if start.After(clipped.Start) {
		clipped.Start = start
	}
	if end.Before(clipped.End) {
		clipped.End = end
	}
	return clipped
}

// Seconds returns the whole seconds covered by the interval.
// Empty or inverted intervals yield 0. Spans of a day or more are reduced
// modulo one day, matching the day/second split of the stored durations.
func (i Interval) Seconds() int64 {
	d := i.End.Sub(i.Start)
	if d <= 0 {
		return 0
	}
	return int64(d/time.Second) % secondsPerDay
}
