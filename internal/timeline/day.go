package timeline

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DayLayout is the canonical text form of a calendar day.
const DayLayout = "2006-01-02"

// Day is a calendar date without time of day. The zero value is not a
// valid day. Days are comparable and usable as map keys.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay returns the calendar day y-m-d, normalizing overflow the way
// time.Date does (e.g. March 32 becomes April 1).
func NewDay(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day{t.Year(), t.Month(), t.Day()}
}

// DayOf truncates t to its calendar day in loc. A nil loc uses t's own location.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Day{y, m, d}
}

// ParseDay parses a strict YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t, nil), nil
}

// MustParseDay is ParseDay for literals; it panics on malformed input.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) Year() int         { return d.year }
func (d Day) Month() time.Month { return d.month }
func (d Day) Dom() int          { return d.day }
func (d Day) IsZero() bool      { return d == Day{} }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

func (d Day) Before(o Day) bool { return d.Compare(o) < 0 }
func (d Day) After(o Day) bool  { return d.Compare(o) > 0 }

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return NewDay(d.year, d.month, d.day+n)
}

// DaysUntil counts the calendar days from d to o; negative when o is earlier.
func (d Day) DaysUntil(o Day) int {
	return int((o.Start(time.UTC).Unix() - d.Start(time.UTC).Unix()) / 86400)
}

// Start is the first instant of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// End is the last instant of d in loc (23:59:59.999999999 local).
func (d Day) End(loc *time.Location) time.Time {
	return d.AddDays(1).Start(loc).Add(-time.Nanosecond)
}

// Compact renders d as YYMMDD.
func (d Day) Compact() string {
	return fmt.Sprintf("%02d%02d%02d", d.year%100, int(d.month), d.day)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores a day as YYYY-MM-DD text.
func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan reads a day stored as text or as a DATE column.
func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = DayOf(v, nil)
		return nil
	default:
		return fmt.Errorf("scan day: unsupported type %T", src)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
