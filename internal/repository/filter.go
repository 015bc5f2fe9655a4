package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/meetingsapi/meetings/internal/model"
)

// MeetingFilter selects meetings. Zero-valued fields do not constrain the result.
type MeetingFilter struct {
	// Attendee restricts to meetings the address participates in.
	Attendee string
	// Title restricts to the meeting with this title.
	Title string
	// IncludeRejected returns rejected meetings as well as accepted ones.
	IncludeRejected bool
	// StartsAtOrAfter keeps meetings with start >= the given time.
	StartsAtOrAfter *time.Time
	// EndsAtOrBefore keeps meetings with end <= the given time.
	EndsAtOrBefore *time.Time
	// OverlapStart and OverlapEnd keep meetings intersecting the window
	// (end > OverlapStart and start < OverlapEnd). Either bound may be nil.
	OverlapStart *time.Time
	OverlapEnd   *time.Time
}

// Matches reports whether m satisfies the filter.
// It mirrors the SQL produced by whereClause.
func (f MeetingFilter) Matches(m *model.Meeting) bool {
	if f.Attendee != "" && !m.HasAttendee(f.Attendee) {
		return false
	}
	if f.Title != "" && m.Title != f.Title {
		return false
	}
	if !f.IncludeRejected && !m.Accepted {
		return false
	}
	if f.StartsAtOrAfter != nil && m.StartDatetime.Before(*f.StartsAtOrAfter) {
		return false
	}
	if f.EndsAtOrBefore != nil && m.EndDatetime.After(*f.EndsAtOrBefore) {
		return false
	}
	if f.OverlapStart != nil && !m.EndDatetime.After(*f.OverlapStart) {
		return false
	}
	if f.OverlapEnd != nil && !m.StartDatetime.Before(*f.OverlapEnd) {
		return false
	}
	return true
}

// whereClause builds the SQL predicate and positional arguments for the filter.
func (f MeetingFilter) whereClause() (string, []any) {
	conditions := []string{"TRUE"}
	args := []any{}

	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if f.Attendee != "" {
		add("$%d = ANY(attendees)", f.Attendee)
	}
	if f.Title != "" {
		add("title = $%d", f.Title)
	}
	if !f.IncludeRejected {
		conditions = append(conditions, "accepted = TRUE")
	}
	if f.StartsAtOrAfter != nil {
		add("start_datetime >= $%d", *f.StartsAtOrAfter)
	}
	if f.EndsAtOrBefore != nil {
		add("end_datetime <= $%d", *f.EndsAtOrBefore)
	}
	if f.OverlapStart != nil {
		add("end_datetime > $%d", *f.OverlapStart)
	}
	if f.OverlapEnd != nil {
		add("start_datetime < $%d", *f.OverlapEnd)
	}

	return strings.Join(conditions, " AND "), args
}
