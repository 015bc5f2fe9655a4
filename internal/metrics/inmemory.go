package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	MeetingsCreated      uint64
	MeetingsUpdated      uint64
	MeetingsAccepted     uint64
	MeetingsRejected     uint64
	MeetingsDeleted      uint64
	HoursCacheHits       uint64
	HoursCacheMisses     uint64
	HoursDurationCount   uint64
	HoursDurationTotalNs int64
	EventsPublished      uint64
	EventsDropped        uint64
}

// InMemoryRecorder keeps counters in process memory. It backs /metrics and tests.
type InMemoryRecorder struct {
	meetingsCreated      atomic.Uint64
	meetingsUpdated      atomic.Uint64
	meetingsAccepted     atomic.Uint64
	meetingsRejected     atomic.Uint64
	meetingsDeleted      atomic.Uint64
	hoursCacheHits       atomic.Uint64
	hoursCacheMisses     atomic.Uint64
	hoursDurationCount   atomic.Uint64
	hoursDurationTotalNs atomic.Int64
	eventsPublished      atomic.Uint64
	eventsDropped        atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		MeetingsCreated:      m.meetingsCreated.Load(),
		MeetingsUpdated:      m.meetingsUpdated.Load(),
		MeetingsAccepted:     m.meetingsAccepted.Load(),
		MeetingsRejected:     m.meetingsRejected.Load(),
		MeetingsDeleted:      m.meetingsDeleted.Load(),
		HoursCacheHits:       m.hoursCacheHits.Load(),
		HoursCacheMisses:     m.hoursCacheMisses.Load(),
		HoursDurationCount:   m.hoursDurationCount.Load(),
		HoursDurationTotalNs: m.hoursDurationTotalNs.Load(),
		EventsPublished:      m.eventsPublished.Load(),
		EventsDropped:        m.eventsDropped.Load(),
	}
}

func (m *InMemoryRecorder) IncMeetingCreated() {
	m.meetingsCreated.Add(1)
}

func (m *InMemoryRecorder) IncMeetingUpdated() {
	m.meetingsUpdated.Add(1)
}

// IncMeetingResponded counts accepted and rejected responses separately.
func (m *InMemoryRecorder) IncMeetingResponded(accepted bool) {
	if accepted {
		m.meetingsAccepted.Add(1)
		return
	}
	m.meetingsRejected.Add(1)
}

func (m *InMemoryRecorder) IncMeetingsDeleted(n int64) {
	if n > 0 {
		m.meetingsDeleted.Add(uint64(n))
	}
}

func (m *InMemoryRecorder) IncHoursCacheHit() {
	m.hoursCacheHits.Add(1)
}

func (m *InMemoryRecorder) IncHoursCacheMiss() {
	m.hoursCacheMisses.Add(1)
}

// ObserveHoursDuration records how long a busy-hours computation took.
func (m *InMemoryRecorder) ObserveHoursDuration(duration time.Duration) {
	m.hoursDurationCount.Add(1)
	m.hoursDurationTotalNs.Add(duration.Nanoseconds())
}

// IncEventPublished counts stream publishes; any status other than "success" is a drop.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		m.eventsPublished.Add(1)
		return
	}
	m.eventsDropped.Add(1)
}
