package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/kkkkikiki/training/internal/apperr"
)

// RawSchedule is a schedule as found in external records. Start/End and
// Days hold whatever encoding the record used: date strings, RFC 3339
// timestamps, epoch seconds or {seconds, nanos} objects.
type RawSchedule struct {
	Start any   `json:"start,omitempty" yaml:"start,omitempty"`
	End   any   `json:"end,omitempty" yaml:"end,omitempty"`
	Days  []any `json:"days,omitempty" yaml:"days,omitempty"`
}

func (r RawSchedule) hasRange() bool {
	return !isBlank(r.Start) || !isBlank(r.End)
}

// DecodeSchedule converts a raw record into a Schedule, evaluating
// timestamps in loc. A record that fills both representations is rejected.
// Range bounds must parse; explicit entries that do not parse are dropped.
// A missing end day makes a single-day range.
func DecodeSchedule(raw RawSchedule, loc *time.Location) (Schedule, error) {
	if raw.hasRange() && len(raw.Days) > 0 {
		return Schedule{}, apperr.Validation(apperr.ReasonInvalidSchedule, "schedule has both a date range and explicit dates")
	}

	if raw.hasRange() {
		if isBlank(raw.Start) {
			return Schedule{}, apperr.Validation(apperr.ReasonInvalidSchedule, "range schedule is missing its start day")
		}
		start, err := CoerceDay(raw.Start, loc)
		if err != nil {
			return Schedule{}, apperr.Validation(apperr.ReasonInvalidSchedule, "invalid start day: %v", err)
		}
		end := start
		if !isBlank(raw.End) {
			if end, err = CoerceDay(raw.End, loc); err != nil {
				return Schedule{}, apperr.Validation(apperr.ReasonInvalidSchedule, "invalid end day: %v", err)
			}
		}
		return RangeSchedule(start, end)
	}

	if len(raw.Days) == 0 {
		return EmptySchedule(), nil
	}
	days := make([]Day, 0, len(raw.Days))
	for _, v := range raw.Days {
		d, err := CoerceDay(v, loc)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return ExplicitSchedule(days), nil
}

// CoerceDay reads one day value in any of the encodings external records
// use and truncates it to a calendar day in loc.
func CoerceDay(v any, loc *time.Location) (Day, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch x := v.(type) {
	case Day:
		if x.IsZero() {
			return Day{}, fmt.Errorf("zero day")
		}
		return x, nil
	case string:
		return coerceString(x, loc)
	case json.Number:
		return coerceString(x.String(), loc)
	case float64:
		return fromEpoch(x, loc)
	case float32:
		return fromEpoch(float64(x), loc)
	case int:
		return fromEpoch(float64(x), loc)
	case int64:
		return fromEpoch(float64(x), loc)
	case uint64:
		return fromEpoch(float64(x), loc)
	case time.Time:
		return fromTime(x, loc), nil
	case *timestamppb.Timestamp:
		return fromTimestamp(x, loc)
	case map[string]any:
		return fromSecondsObject(x, loc)
	default:
		return Day{}, fmt.Errorf("unsupported date value of type %T", v)
	}
}

func coerceString(s string, loc *time.Location) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, fmt.Errorf("empty date")
	}
	if d, err := ParseDay(s); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DayOf(t, loc), nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(secs, loc)
	}
	return Day{}, fmt.Errorf("unrecognized date %q", s)
}

func fromEpoch(secs float64, loc *time.Location) (Day, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return Day{}, fmt.Errorf("invalid epoch seconds %v", secs)
	}
	whole, frac := math.Modf(secs)
	return fromTimestamp(&timestamppb.Timestamp{Seconds: int64(whole), Nanos: int32(frac * 1e9)}, loc)
}

// fromSecondsObject handles {seconds, nanos} records as well as the
// {_seconds, _nanoseconds} shape some document stores export.
func fromSecondsObject(m map[string]any, loc *time.Location) (Day, error) {
	secs, ok := lookupNumber(m, "seconds", "_seconds")
	if !ok {
		return Day{}, fmt.Errorf("timestamp object has no seconds field")
	}
	nanos, _ := lookupNumber(m, "nanos", "nanoseconds", "_nanoseconds")
	return fromTimestamp(&timestamppb.Timestamp{Seconds: int64(secs), Nanos: int32(nanos)}, loc)
}

func fromTimestamp(ts *timestamppb.Timestamp, loc *time.Location) (Day, error) {
	if err := ts.CheckValid(); err != nil {
		return Day{}, err
	}
	return DayOf(ts.AsTime(), loc), nil
}

// fromTime treats a midnight UTC value as a plain date (what YAML and date
// columns produce) and anything else as an instant.
func fromTime(t time.Time, loc *time.Location) Day {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return DayOf(t, nil)
	}
	return DayOf(t, loc)
}

func lookupNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			f, err := n.Float64()
			return f, err == nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			return f, err == nil
		}
	}
	return 0, false
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}
