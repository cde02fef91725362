// Package checkin implements the scanned-code attendance protocol.
//
// A code is the text "{program_id}-{YYYY}-{MM}-{DD}". The program id may
// contain dashes itself, so a payload is always split from the right.
package checkin

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/timeline"
)

// Code is a parsed check-in payload.
type Code struct {
	ProgramID string
	Day       timeline.Day
}

func (c Code) String() string {
	return EncodeCode(c.ProgramID, c.Day)
}

// EncodeCode renders the payload that is valid for day.
func EncodeCode(programID string, day timeline.Day) string {
	return fmt.Sprintf("%s-%04d-%02d-%02d", programID, day.Year(), int(day.Month()), day.Dom())
}

// ParseCode extracts the program id and day from a payload.
func ParseCode(payload string) (Code, error) {
	rest, dd, ok := cutLast(payload)
	if !ok {
		return Code{}, invalidFormat(payload, "missing day")
	}
	rest, mm, ok := cutLast(rest)
	if !ok {
		return Code{}, invalidFormat(payload, "missing month")
	}
	programID, yyyy, ok := cutLast(rest)
	if !ok {
		return Code{}, invalidFormat(payload, "missing year")
	}
	if programID == "" {
		return Code{}, invalidFormat(payload, "empty program id")
	}

	year, ok := digits(yyyy, 4)
	if !ok {
		return Code{}, invalidFormat(payload, "year must be 4 digits")
	}
	month, ok := digits(mm, 2)
	if !ok {
		return Code{}, invalidFormat(payload, "month must be 2 digits")
	}
	dom, ok := digits(dd, 2)
	if !ok {
		return Code{}, invalidFormat(payload, "day must be 2 digits")
	}

	day := timeline.NewDay(year, time.Month(month), dom)
	if day.Year() != year || int(day.Month()) != month || day.Dom() != dom {
		return Code{}, invalidFormat(payload, "not a calendar date")
	}
	return Code{ProgramID: programID, Day: day}, nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, '-')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// digits parses exactly n ASCII digits.
func digits(s string, n int) (int, bool) {
	if len(s) != n {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func invalidFormat(payload, why string) error {
	return apperr.Validation(apperr.ReasonInvalidFormat, "unreadable check-in code: %s", why).
		With("payload", payload)
}
