package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/timeline"
)

// AttendanceRepository handles attendance ledger operations
type AttendanceRepository struct{}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{}
}

// InsertEntry adds a ledger line unless one already exists for the same
// participant, program and day. The primary key arbitrates concurrent inserts.
func (r *AttendanceRepository) InsertEntry(ctx context.Context, db DBExecutor, entry *model.AttendanceEntry) (bool, error) {
	query := `
		INSERT INTO attendance (participant_id, program_id, day, remark, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (participant_id, program_id, day) DO NOTHING
	`

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	inserted, err := execAffected(ctx, db, query,
		entry.ParticipantID, entry.ProgramID, entry.Day, entry.Remark, entry.RecordedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert attendance: %w", err)
	}
	return inserted, nil
}

// UpgradeToPresent turns an absent line into a present one. It reports false
// when there is no absent line to upgrade.
func (r *AttendanceRepository) UpgradeToPresent(ctx context.Context, db DBExecutor, participantID, programID string, day timeline.Day, at time.Time) (bool, error) {
	query := `
		UPDATE attendance
		SET remark = ?, recorded_at = ?
		WHERE participant_id = ? AND program_id = ? AND day = ? AND remark = ?
	`

	upgraded, err := execAffected(ctx, db, query,
		model.RemarkPresent, at.UTC(), participantID, programID, day, model.RemarkAbsent)
	if err != nil {
		return false, fmt.Errorf("failed to upgrade attendance: %w", err)
	}
	return upgraded, nil
}

// GetEntry returns the ledger line for a day, or nil when none exists.
func (r *AttendanceRepository) GetEntry(ctx context.Context, db DBExecutor, participantID, programID string, day timeline.Day) (*model.AttendanceEntry, error) {
	query := `
		SELECT participant_id, program_id, day, remark, recorded_at
		FROM attendance
		WHERE participant_id = ? AND program_id = ? AND day = ?
	`

	var entry model.AttendanceEntry
	if err := db.GetContext(ctx, &entry, db.Rebind(query), participantID, programID, day); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &entry, nil
}

// ListEntries returns a participant's ledger for a program ordered by day.
func (r *AttendanceRepository) ListEntries(ctx context.Context, db DBExecutor, participantID, programID string) ([]model.AttendanceEntry, error) {
	query := `
		SELECT participant_id, program_id, day, remark, recorded_at
		FROM attendance
		WHERE participant_id = ? AND program_id = ?
		ORDER BY day ASC
	`

	entries := []model.AttendanceEntry{}
	if err := db.SelectContext(ctx, &entries, db.Rebind(query), participantID, programID); err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return entries, nil
}
