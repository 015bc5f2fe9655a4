package metrics

import (
	"sync"
	"testing"
	"time"
)

var _ Recorder = (*InMemoryRecorder)(nil)
var _ Snapshotter = (*InMemoryRecorder)(nil)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncMeetingCreated()
	m.IncMeetingCreated()
	m.IncMeetingUpdated()
	m.IncMeetingResponded(true)
	m.IncMeetingResponded(false)
	m.IncMeetingResponded(false)
	m.IncMeetingsDeleted(3)
	m.IncMeetingsDeleted(0)
	m.IncHoursCacheHit()
	m.IncHoursCacheMiss()
	m.ObserveHoursDuration(2 * time.Millisecond)
	m.IncEventPublished("success")
	m.IncEventPublished("dropped")

	got := m.Snapshot()
	want := Snapshot{
		MeetingsCreated:      2,
		MeetingsUpdated:      1,
		MeetingsAccepted:     1,
		MeetingsRejected:     2,
		MeetingsDeleted:      3,
		HoursCacheHits:       1,
		HoursCacheMisses:     1,
		HoursDurationCount:   1,
		HoursDurationTotalNs: int64(2 * time.Millisecond),
		EventsPublished:      1,
		EventsDropped:        1,
	}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncMeetingCreated()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().MeetingsCreated; got != 50 {
		t.Errorf("MeetingsCreated = %d, want 50", got)
	}
}
