package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/training/internal/database"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/repository"
	"github.com/kkkkikiki/training/internal/timeline"
)

// OpenDB opens a migrated SQLite database under t.TempDir and closes it
// when the test ends.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "training.db")
	dsn := "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

	db, err := database.Open(context.Background(), "sqlite3", dsn, 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db.Conn
}

// SeedProgram stores a program with the given explicit days and capacity.
func SeedProgram(t *testing.T, db *sqlx.DB, p model.Program, days ...string) *model.Program {
	t.Helper()

	raw := timeline.RawSchedule{}
	for _, d := range days {
		raw.Days = append(raw.Days, d)
	}
	return SeedProgramRaw(t, db, p, raw)
}

// SeedProgramRaw stores a program with an arbitrary raw schedule record.
func SeedProgramRaw(t *testing.T, db *sqlx.DB, p model.Program, raw timeline.RawSchedule) *model.Program {
	t.Helper()

	require.NoError(t, p.SetRawSchedule(raw))
	require.NoError(t, repository.NewProgramRepository().CreateProgram(context.Background(), db, &p))
	return &p
}

// SeedEnrollment stores an enrollment in the given status.
func SeedEnrollment(t *testing.T, db *sqlx.DB, programID, participantID, name string, status model.EnrollmentStatus) *model.Enrollment {
	t.Helper()

	e := &model.Enrollment{
		ApplicationID:   model.ApplicationID(programID, participantID),
		ProgramID:       programID,
		ParticipantID:   participantID,
		ParticipantName: name,
		Status:          model.EnrollmentPending,
	}
	repo := repository.NewEnrollmentRepository()
	inserted, err := repo.CreateEnrollment(context.Background(), db, e)
	require.NoError(t, err)
	require.True(t, inserted)

	if status != model.EnrollmentPending {
		decided, err := repo.Decide(context.Background(), db, e.ApplicationID, status, e.AppliedAt)
		require.NoError(t, err)
		require.True(t, decided)
		e.Status = status
	}
	return e
}
