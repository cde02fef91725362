// Package timeline normalizes a program's schedule into its canonical
// timeline: the ascending, de-duplicated calendar days the program actually
// occurs on. Every other part of the engine works from that timeline.
package timeline

import (
	"slices"
)

// Timeline is the canonical, immutable sequence of a program's days.
type Timeline struct {
	mode Mode
	days []Day
}

// Normalize computes the canonical timeline of s. It is a pure function:
// the same schedule always yields the same days in the same order.
func Normalize(s Schedule) Timeline {
	switch s.mode {
	case ModeRange:
		days := make([]Day, 0, 8)
		for d := s.start; !d.After(s.end); d = d.AddDays(1) {
			days = append(days, d)
		}
		return Timeline{mode: ModeRange, days: days}
	case ModeExplicit:
		days := slices.Clone(s.days)
		slices.SortFunc(days, Day.Compare)
		days = slices.Compact(days)
		return Timeline{mode: ModeExplicit, days: days}
	default:
		return Timeline{}
	}
}

// Of builds a timeline of exactly the given days, sorted and
// de-duplicated. Range mode does not fill gaps between them.
func Of(mode Mode, days ...Day) Timeline {
	t := Normalize(ExplicitSchedule(days))
	if len(t.days) == 0 {
		return Timeline{}
	}
	t.mode = mode
	return t
}

func (t Timeline) Mode() Mode    { return t.mode }
func (t Timeline) Len() int      { return len(t.days) }
func (t Timeline) IsEmpty() bool { return len(t.days) == 0 }

// Days returns a copy of the timeline's days.
func (t Timeline) Days() []Day {
	return slices.Clone(t.days)
}

// First returns the earliest day.
func (t Timeline) First() (Day, bool) {
	if len(t.days) == 0 {
		return Day{}, false
	}
	return t.days[0], true
}

// Last returns the latest day.
func (t Timeline) Last() (Day, bool) {
	if len(t.days) == 0 {
		return Day{}, false
	}
	return t.days[len(t.days)-1], true
}

// Contains reports whether d is one of the timeline's days.
func (t Timeline) Contains(d Day) bool {
	_, found := slices.BinarySearchFunc(t.days, d, Day.Compare)
	return found
}

// Strings renders the days as YYYY-MM-DD.
func (t Timeline) Strings() []string {
	out := make([]string, len(t.days))
	for i, d := range t.days {
		out[i] = d.String()
	}
	return out
}
