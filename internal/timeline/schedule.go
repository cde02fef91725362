package timeline

import (
	"slices"

	"github.com/kkkkikiki/training/internal/apperr"
)

// Mode tells which schedule representation a program uses.
type Mode string

const (
	ModeNone     Mode = ""
	ModeRange    Mode = "range"
	ModeExplicit Mode = "explicit"
)

// Schedule is a program's raw occurrence dates: either a contiguous
// inclusive range or an explicit list of days, never both. Build it with
// RangeSchedule, ExplicitSchedule or EmptySchedule.
type Schedule struct {
	mode  Mode
	start Day
	end   Day
	days  []Day
}

// RangeSchedule covers every day from start to end inclusive.
func RangeSchedule(start, end Day) (Schedule, error) {
	if start.IsZero() || end.IsZero() {
		return Schedule{}, apperr.Validation(apperr.ReasonInvalidSchedule, "range schedule needs both start and end day")
	}
	if end.Before(start) {
		return Schedule{}, apperr.Validation(apperr.ReasonInvalidSchedule, "end day %s is before start day %s", end, start).
			With("start_day", start.String()).
			With("end_day", end.String())
	}
	return Schedule{mode: ModeRange, start: start, end: end}, nil
}

// ExplicitSchedule lists the program's days. Order and duplicates do not
// matter; zero days are ignored.
func ExplicitSchedule(days []Day) Schedule {
	kept := make([]Day, 0, len(days))
	for _, d := range days {
		if !d.IsZero() {
			kept = append(kept, d)
		}
	}
	return Schedule{mode: ModeExplicit, days: kept}
}

// DefaultMaxDays is the schedule length limit used when none is configured.
const DefaultMaxDays = 366

// CheckLength rejects a schedule covering more than maxDays distinct days.
// Ranges are measured from their bounds and never materialized.
// A maxDays of zero or less disables the check.
func CheckLength(s Schedule, maxDays int) error {
	if maxDays <= 0 {
		return nil
	}
	if n := s.Len(); n > maxDays {
		return apperr.Validation(apperr.ReasonInvalidSchedule, "schedule covers %d days, more than the limit of %d", n, maxDays).
			With("days", n).
			With("max_days", maxDays)
	}
	return nil
}

// EmptySchedule has no occurrences at all.
func EmptySchedule() Schedule {
	return Schedule{}
}

func (s Schedule) Mode() Mode { return s.mode }

// Len counts the distinct days s covers.
func (s Schedule) Len() int {
	switch s.mode {
	case ModeRange:
		return s.start.DaysUntil(s.end) + 1
	case ModeExplicit:
		days := slices.Clone(s.days)
		slices.SortFunc(days, Day.Compare)
		return len(slices.Compact(days))
	default:
		return 0
	}
}

// Range returns the bounds of a range schedule.
func (s Schedule) Range() (start, end Day, ok bool) {
	if s.mode != ModeRange {
		return Day{}, Day{}, false
	}
	return s.start, s.end, true
}

// ExplicitDays returns a copy of the listed days of an explicit schedule.
func (s Schedule) ExplicitDays() []Day {
	return slices.Clone(s.days)
}

// Raw converts the schedule back to its storable form.
func (s Schedule) Raw() RawSchedule {
	switch s.mode {
	case ModeRange:
		return RawSchedule{Start: s.start.String(), End: s.end.String()}
	case ModeExplicit:
		days := make([]any, len(s.days))
		for i, d := range s.days {
			days[i] = d.String()
		}
		return RawSchedule{Days: days}
	default:
		return RawSchedule{}
	}
}
