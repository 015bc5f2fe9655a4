// Package model defines domain entities for the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire format for meeting timestamps (ISO-8601 without offset).
const DateTimeLayout = "2006-01-02T15:04:05"

// acceptedLayouts lists the ISO-8601 shapes accepted on input, most specific first.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	DateTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ErrInvalidDateTime is returned when a timestamp is not valid ISO-8601.
var ErrInvalidDateTime = errors.New("invalid ISO-8601 datetime")

// ParseDateTime parses an ISO-8601 timestamp.
// Values carrying an offset are normalised to UTC; naive values are taken as UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, value)
}

// FormatDateTime renders a timestamp in the wire format.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// Meeting represents a scheduled meeting.
// Title is the public lookup key and is unique across the collection.
type Meeting struct {
	ID            string    `json:"-"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	StartDatetime time.Time `json:"startDatetime"`
	EndDatetime   time.Time `json:"endDatetime"`
	Attendees     []string  `json:"attendees"`
	Accepted      bool      `json:"accepted"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// Duration returns the raw length of the meeting.
func (m *Meeting) Duration() time.Duration {
	return m.EndDatetime.Sub(m.StartDatetime)
}

// HasValidDuration reports whether the meeting ends strictly after it starts.
func (m *Meeting) HasValidDuration() bool {
	return m.EndDatetime.After(m.StartDatetime)
}

// HasAttendee reports whether email is on the attendee list.
func (m *Meeting) HasAttendee(email string) bool {
	for _, a := range m.Attendees {
		if a == email {
			return true
		}
	}
	return false
}

// Interval returns the meeting span as an Interval.
func (m *Meeting) Interval() Interval {
	return Interval{Start: m.StartDatetime, End: m.EndDatetime}
}

// Clone returns a deep copy of the meeting.
func (m *Meeting) Clone() *Meeting {
	c := *m
	if m.Attendees != nil {
		c.Attendees = append([]string(nil), m.Attendees...)
	}
	return &c
}

// MeetingPatch lists the fields supplied in a partial update.
// A nil field was not supplied and is left unchanged.
type MeetingPatch struct {
	Title         *string
	Description   *string
	StartDatetime *time.Time
	EndDatetime   *time.Time
	Attendees     []string
}

// IsEmpty reports whether no field was supplied.
func (p MeetingPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.StartDatetime == nil &&
		p.EndDatetime == nil &&
		p.Attendees == nil
}

// ApplyTo returns a copy of m with the supplied fields overwritten.
func (p MeetingPatch) ApplyTo(m *Meeting) *Meeting {
	updated := m.Clone()
	if p.Title != nil {
		updated.Title = *p.Title
	}
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if p.StartDatetime != nil {
		updated.StartDatetime = p.StartDatetime.UTC()
	}
	if p.EndDatetime != nil {
		updated.EndDatetime = p.EndDatetime.UTC()
	}
	if p.Attendees != nil {
		updated.Attendees = append([]string(nil), p.Attendees...)
	}
	return updated
}

// BusyDuration is the aggregate time a participant spends in accepted meetings.
type BusyDuration struct {
	Seconds int64   `json:"seconds"`
	Minutes float64 `json:"minutes"`
	Hours   float64 `json:"hours"`
}
