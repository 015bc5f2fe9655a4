// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Meeting lifecycle metrics
	IncMeetingCreated()
	IncMeetingUpdated()
	IncMeetingResponded(accepted bool)
	IncMeetingsDeleted(n int64)

	// Busy-hours metrics
	IncHoursCacheHit()
	IncHoursCacheMiss()
	ObserveHoursDuration(duration time.Duration)

	// Lifecycle event stream
	IncEventPublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
