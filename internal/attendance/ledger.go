// Package attendance keeps the per-day attendance ledger and answers
// completeness questions against a program's canonical timeline.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/repository"
	"github.com/kkkkikiki/training/internal/timeline"
)

// Outcome reports what MarkPresent did.
type Outcome string

const (
	Inserted       Outcome = "inserted"
	AlreadyPresent Outcome = "already_present"
)

// Ledger records attendance. Every write is atomic per
// (participant, program, day).
type Ledger struct {
	db   *sqlx.DB
	repo *repository.AttendanceRepository
	now  func() time.Time
}

// NewLedger creates a ledger over db.
func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{
		db:   db,
		repo: repository.NewAttendanceRepository(),
		now:  time.Now,
	}
}

// MarkPresent records the participant as present on day. Marking the same
// day twice is a no-op reported as AlreadyPresent. An existing absence is
// upgraded in place.
func (l *Ledger) MarkPresent(ctx context.Context, participantID, programID string, day timeline.Day) (Outcome, error) {
	entry := &model.AttendanceEntry{
		ParticipantID: participantID,
		ProgramID:     programID,
		Day:           day,
		Remark:        model.RemarkPresent,
		RecordedAt:    l.now().UTC(),
	}

	inserted, err := l.repo.InsertEntry(ctx, l.db, entry)
	if err != nil {
		return "", apperr.Classify(err)
	}
	if inserted {
		return Inserted, nil
	}

	// A line exists already; only an absence can still change.
	upgraded, err := l.repo.UpgradeToPresent(ctx, l.db, participantID, programID, day, entry.RecordedAt)
	if err != nil {
		return "", apperr.Classify(err)
	}
	if upgraded {
		return Inserted, nil
	}
	return AlreadyPresent, nil
}

// RecordAbsence materializes an absence. It never overwrites a present
// line and reports whether a line was written.
func (l *Ledger) RecordAbsence(ctx context.Context, participantID, programID string, day timeline.Day) (bool, error) {
	inserted, err := l.repo.InsertEntry(ctx, l.db, &model.AttendanceEntry{
		ParticipantID: participantID,
		ProgramID:     programID,
		Day:           day,
		Remark:        model.RemarkAbsent,
		RecordedAt:    l.now().UTC(),
	})
	if err != nil {
		return false, apperr.Classify(err)
	}
	return inserted, nil
}

// IsPresent reports whether the participant is already marked present on day.
func (l *Ledger) IsPresent(ctx context.Context, participantID, programID string, day timeline.Day) (bool, error) {
	entry, err := l.repo.GetEntry(ctx, l.db, participantID, programID, day)
	if err != nil {
		return false, apperr.Classify(err)
	}
	return entry != nil && entry.Remark == model.RemarkPresent, nil
}

// Completeness is a participant's attendance measured against a timeline.
type Completeness struct {
	Attended int  `json:"attended"`
	Total    int  `json:"total"`
	Complete bool `json:"complete"`
}

func (c Completeness) String() string {
	return fmt.Sprintf("%d/%d", c.Attended, c.Total)
}

// Tally counts present entries whose day is on the timeline. Entries for
// days the timeline no longer contains are ignored, so Attended never
// exceeds Total.
func Tally(entries []model.AttendanceEntry, tl timeline.Timeline) Completeness {
	c := Completeness{Total: tl.Len()}
	for _, e := range entries {
		if e.Remark == model.RemarkPresent && tl.Contains(e.Day) {
			c.Attended++
		}
	}
	c.Complete = c.Total > 0 && c.Attended == c.Total
	return c
}

// Completeness loads the participant's ledger and tallies it.
func (l *Ledger) Completeness(ctx context.Context, participantID, programID string, tl timeline.Timeline) (Completeness, error) {
	entries, err := l.repo.ListEntries(ctx, l.db, participantID, programID)
	if err != nil {
		return Completeness{}, apperr.Classify(err)
	}
	return Tally(entries, tl), nil
}

// Mark is a day's attendance state on a sheet.
type Mark string

const (
	MarkPresent   Mark = "present"
	MarkAbsent    Mark = "absent"
	MarkScheduled Mark = "scheduled"
)

// SheetRow is one timeline day on an attendance sheet.
type SheetRow struct {
	Day  timeline.Day `json:"day"`
	Mark Mark         `json:"mark"`
}

// Sheet lists every timeline day with its mark. Past days without a
// ledger line read as absent; today and later read as scheduled.
func (l *Ledger) Sheet(ctx context.Context, participantID, programID string, tl timeline.Timeline, today timeline.Day) ([]SheetRow, error) {
	entries, err := l.repo.ListEntries(ctx, l.db, participantID, programID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return BuildSheet(entries, tl, today), nil
}

// BuildSheet synthesizes a sheet from ledger lines.
func BuildSheet(entries []model.AttendanceEntry, tl timeline.Timeline, today timeline.Day) []SheetRow {
	byDay := make(map[timeline.Day]model.Remark, len(entries))
	for _, e := range entries {
		byDay[e.Day] = e.Remark
	}

	rows := make([]SheetRow, 0, tl.Len())
	for _, d := range tl.Days() {
		row := SheetRow{Day: d}
		switch remark, ok := byDay[d]; {
		case ok && remark == model.RemarkPresent:
			row.Mark = MarkPresent
		case ok:
			row.Mark = MarkAbsent
		case d.Before(today):
			row.Mark = MarkAbsent
		default:
			row.Mark = MarkScheduled
		}
		rows = append(rows, row)
	}
	return rows
}
