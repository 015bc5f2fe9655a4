// Package busy computes how long a participant is occupied by meetings within a window.
package busy

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meetingsapi/meetings/internal/model"
)

var (
	secondsPerMinute = decimal.NewFromInt(60)
	secondsPerHour   = decimal.NewFromInt(3600)
)

// ComputeSeconds returns the busy time, in seconds, of meetings inside [windowStart, windowEnd].
//
// Meetings are walked by ascending start; on equal starts the longer meeting goes first.
// The first meeting always counts.
// Each later meeting counts only if it starts at or after the end of the last counted
// meeting; otherwise it is skipped as a whole, including any tail that runs past that end.
// Each counted meeting contributes its span clipped to the window (see model.Interval.Seconds).
//
// The input slice is not modified.
func ComputeSeconds(windowStart, windowEnd time.Time, meetings []*model.Meeting) int64 {
	if len(meetings) == 0 {
		return 0
	}

	sorted := make([]*model.Meeting, len(meetings))
	copy(sorted, meetings)
	sort.SliceStable(sorted, func(a, b int) bool {
		if !sorted[a].StartDatetime.Equal(sorted[b].StartDatetime) {
			return sorted[a].StartDatetime.Before(sorted[b].StartDatetime)
		}
		return sorted[a].EndDatetime.After(sorted[b].EndDatetime)
	})

	total := clippedSeconds(sorted[0], windowStart, windowEnd)
	current := sorted[0]
	for _, m := range sorted[1:] {
		if m.StartDatetime.Before(current.EndDatetime) {
			continue
		}
		total += clippedSeconds(m, windowStart, windowEnd)
		current = m
	}

	return total
}

// Compute returns the busy time as seconds, minutes and hours.
func Compute(windowStart, windowEnd time.Time, meetings []*model.Meeting) model.BusyDuration {
	return Summarize(ComputeSeconds(windowStart, windowEnd, meetings))
}

// Summarize derives minutes and hours from seconds, rounded half away from zero to 2 places.
func Summarize(seconds int64) model.BusyDuration {
	s := decimal.NewFromInt(seconds)
	return model.BusyDuration{
		Seconds: seconds,
		Minutes: s.Div(secondsPerMinute).Round(2).InexactFloat64(),
		Hours:   s.Div(secondsPerHour).Round(2).InexactFloat64(),
	}
}

func clippedSeconds(m *model.Meeting, windowStart, windowEnd time.Time) int64 {
	return m.Interval().Clip(windowStart, windowEnd).Seconds()
}
