package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncMeetingCreated() {}
func (n *NoopRecorder) IncMeetingUpdated() {}
func (n *NoopRecorder) IncMeetingResponded(accepted bool) {}
func (n *NoopRecorder) IncMeetingsDeleted(count int64) {}
func (n *NoopRecorder) IncHoursCacheHit() {}
func (n *NoopRecorder) IncHoursCacheMiss() {}
func (n *NoopRecorder) ObserveHoursDuration(time.Duration) {}
func (n *NoopRecorder) IncEventPublished(status string) {}
