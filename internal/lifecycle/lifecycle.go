// Package lifecycle derives a program's status from its canonical timeline,
// the current time and its remaining capacity. Status is never stored:
// callers classify on every request with an explicit now.
package lifecycle

import (
	"time"

	"github.com/kkkkikiki/training/internal/timeline"
)

// Status is a derived program state.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusEnded     Status = "ended"
	StatusSlotsFull Status = "slots_full"
)

// Classify returns the program's status at now, evaluating calendar days in loc.
//
// Capacity exhaustion wins over every date state. A program ends only once
// the calendar day after its last occurrence has begun, so the last day
// stays ongoing until 23:59:59 local. An empty timeline has no occurrence
// left and is ended; an explicit-date program between two sessions is
// upcoming.
func Classify(tl timeline.Timeline, now time.Time, slotsRemaining int, loc *time.Location) Status {
	if slotsRemaining <= 0 {
		return StatusSlotsFull
	}
	return ClassifyDates(tl, timeline.DayOf(now, loc))
}

// ClassifyDates is the date-only part of Classify.
func ClassifyDates(tl timeline.Timeline, today timeline.Day) Status {
	last, ok := tl.Last()
	if !ok || last.Before(today) {
		return StatusEnded
	}
	if tl.Contains(today) {
		return StatusOngoing
	}
	return StatusUpcoming
}

// AcceptsEnrollment reports whether new applications make sense for s.
func (s Status) AcceptsEnrollment() bool {
	return s == StatusUpcoming || s == StatusOngoing
}
