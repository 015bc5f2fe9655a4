package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	"github.com/meetingsapi/meetings/internal/model"
)

func TestEncode_RoundTrip(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	meetings := []*model.Meeting{
		{
			ID:            "01HQZ6F4N1T7X3JQ0W5C2V9B8K",
			Title:         "standup",
			Description:   "daily, quick",
			StartDatetime: start,
			EndDatetime:   start.Add(15 * time.Minute),
			Attendees:     []string{"alice@gmail.com", "bob@ridecell.com"},
			Accepted:      true,
		},
		{
			Title:         "retro",
			StartDatetime: start.Add(6 * time.Hour),
			EndDatetime:   start.Add(7 * time.Hour),
			Attendees:     []string{"alice@gmail.com"},
			Accepted:      false,
		},
	}

	data, err := Encode(meetings, stamp)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}

	evts := cal.Events()
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}

	tests := []struct {
		uid     string
		summary string
		status  string
		start   time.Time
		end     time.Time
		guests  int
	}{
		{"01HQZ6F4N1T7X3JQ0W5C2V9B8K@meetings.local", "standup", "CONFIRMED", start, start.Add(15 * time.Minute), 2},
		{"retro@meetings.local", "retro", "CANCELLED", start.Add(6 * time.Hour), start.Add(7 * time.Hour), 1},
	}

	for i, tt := range tests {
		ev := evts[i]

		if got, _ := ev.Props.Text(ical.PropUID); got != tt.uid {
			t.Errorf("event %d UID = %q, want %q", i, got, tt.uid)
		}
		if got, _ := ev.Props.Text(ical.PropSummary); got != tt.summary {
			t.Errorf("event %d SUMMARY = %q, want %q", i, got, tt.summary)
		}
		if got, _ := ev.Props.Text(ical.PropStatus); got != tt.status {
			t.Errorf("event %d STATUS = %q, want %q", i, got, tt.status)
		}
		gotStart, err := ev.DateTimeStart(time.UTC)
		if err != nil || !gotStart.Equal(tt.start) {
			t.Errorf("event %d DTSTART = %v (%v), want %v", i, gotStart, err, tt.start)
		}
		gotEnd, err := ev.DateTimeEnd(time.UTC)
		if err != nil || !gotEnd.Equal(tt.end) {
			t.Errorf("event %d DTEND = %v (%v), want %v", i, gotEnd, err, tt.end)
		}
		if got := len(ev.Props.Values(ical.PropAttendee)); got != tt.guests {
			t.Errorf("event %d has %d attendees, want %d", i, got, tt.guests)
		}
	}

	if got, _ := evts[0].Props.Text(ical.PropDescription); got != "daily, quick" {
		t.Errorf("DESCRIPTION = %q", got)
	}
	if evts[1].Props.Get(ical.PropDescription) != nil {
		t.Error("expected no DESCRIPTION for meeting without one")
	}
}

func TestEncode_Attendees(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	data, err := Encode([]*model.Meeting{{
		Title:         "sync",
		StartDatetime: start,
		EndDatetime:   start.Add(time.Hour),
		Attendees:     []string{"alice@gmail.com"},
		Accepted:      true,
	}}, start)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//meetingsapi//meetings//EN",
		"ATTENDEE:mailto:alice@gmail.com",
		"DTSTART:20240304T090000Z",
		"DTEND:20240304T100000Z",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("calendar missing %q:\n%s", want, data)
		}
	}
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil, time.Now())
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !strings.HasPrefix(string(data), "BEGIN:VCALENDAR") {
		t.Fatalf("unexpected output %q", data)
	}
}
