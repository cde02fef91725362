// Package conflict decides whether a participant's program enrollments
// overlap in time.
package conflict

import (
	"github.com/kkkkikiki/training/internal/timeline"
)

// Enrollment is one of the participant's existing pending or approved
// enrollments together with its program's canonical timeline.
type Enrollment struct {
	ProgramID string
	Timeline  timeline.Timeline
}

// HasConflict reports whether candidate overlaps any of the existing
// enrollments. Enrollments in the candidate program itself are ignored.
//
// Every timeline is reduced to its [first, last] span before the inclusive
// interval test, so two explicit-date programs whose spans interleave
// conflict even when no single day coincides.
func HasConflict(participantID, candidateProgramID string, candidate timeline.Timeline, existing []Enrollment) bool {
	_, found := FirstConflict(participantID, candidateProgramID, candidate, existing)
	return found
}

// FirstConflict is HasConflict that also returns the conflicting enrollment.
func FirstConflict(participantID, candidateProgramID string, candidate timeline.Timeline, existing []Enrollment) (Enrollment, bool) {
	cStart, cEnd, ok := span(candidate)
	if !ok {
		return Enrollment{}, false
	}
	for _, e := range existing {
		if e.ProgramID == candidateProgramID {
			continue
		}
		oStart, oEnd, ok := span(e.Timeline)
		if !ok {
			continue
		}
		if Overlaps(cStart, cEnd, oStart, oEnd) {
			return e, true
		}
	}
	return Enrollment{}, false
}

// Overlaps is the inclusive interval test a.start <= b.end && a.end >= b.start.
func Overlaps(aStart, aEnd, bStart, bEnd timeline.Day) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

func span(tl timeline.Timeline) (timeline.Day, timeline.Day, bool) {
	first, ok := tl.First()
	if !ok {
		return timeline.Day{}, timeline.Day{}, false
	}
	last, _ := tl.Last()
	return first, last, true
}
