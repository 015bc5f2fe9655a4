// Package calendar renders meetings as iCalendar (RFC 5545) documents.
package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/meetingsapi/meetings/internal/model"
)

const (
	productID = "-//meetingsapi//meetings//EN"
	uidDomain = "meetings.local"

	statusConfirmed = "CONFIRMED"
	statusCancelled = "CANCELLED"
)

// ContentType is the media type of an encoded calendar.
const ContentType = "text/calendar; charset=utf-8"

// Encode renders one VEVENT per meeting. Rejected meetings are marked CANCELLED.
// stamp is written as DTSTAMP on every event.
func Encode(meetings []*model.Meeting, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	for _, m := range meetings {
		cal.Children = append(cal.Children, newEvent(m, stamp.UTC()).Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func newEvent(m *model.Meeting, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid(m))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	event.Props.SetDateTime(ical.PropDateTimeStart, m.StartDatetime.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, m.EndDatetime.UTC())
	event.Props.SetText(ical.PropSummary, m.Title)
	if m.Description != "" {
		event.Props.SetText(ical.PropDescription, m.Description)
	}

	status := statusConfirmed
	if !m.Accepted {
		status = statusCancelled
	}
	event.Props.SetText(ical.PropStatus, status)

	for _, attendee := range m.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + attendee
		event.Props.Add(prop)
	}

	return event
}

// uid is stable across exports so clients update rather than duplicate events.
func uid(m *model.Meeting) string {
	if m.ID != "" {
		return m.ID + "@" + uidDomain
	}
	return m.Title + "@" + uidDomain
}
