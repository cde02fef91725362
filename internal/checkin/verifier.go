package checkin

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/attendance"
	"github.com/kkkkikiki/training/internal/metrics"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/repository"
	"github.com/kkkkikiki/training/internal/timeline"
)

// Scan is one decoded scan from the front end.
type Scan struct {
	Payload           string
	ExpectedProgramID string
	ParticipantID     string
}

// Result reports a successful check-in.
type Result struct {
	ProgramID     string       `json:"program_id"`
	ParticipantID string       `json:"participant_id"`
	Day           timeline.Day `json:"day"`
}

// Verifier evaluates scans. It keeps no state between scans.
type Verifier struct {
	db          *sqlx.DB
	programs    *repository.ProgramRepository
	enrollments *repository.EnrollmentRepository
	ledger      *attendance.Ledger
	loc         *time.Location
	now         func() time.Time
}

// NewVerifier creates a verifier. loc is the zone used for programs that
// do not configure their own.
func NewVerifier(db *sqlx.DB, ledger *attendance.Ledger, loc *time.Location) *Verifier {
	return &Verifier{
		db:          db,
		programs:    repository.NewProgramRepository(),
		enrollments: repository.NewEnrollmentRepository(),
		ledger:      ledger,
		loc:         loc,
		now:         time.Now,
	}
}

// Verify runs the check-in steps in order and marks the participant
// present on success. Every rejection carries a distinct reason and none
// of them ends the scanning session.
func (v *Verifier) Verify(ctx context.Context, scan Scan) (res *Result, err error) {
	defer func() {
		reason := "success"
		if err != nil {
			reason = string(apperr.ReasonOf(err))
			if reason == "" {
				reason = "error"
			}
		}
		metrics.RecordCheckIn(reason)
	}()

	// 1. parse
	code, err := ParseCode(scan.Payload)
	if err != nil {
		return nil, err
	}

	// 2. program
	if code.ProgramID != scan.ExpectedProgramID {
		return nil, apperr.Validation(apperr.ReasonWrongProgram, "code belongs to another program").
			With("expected_program_id", scan.ExpectedProgramID).
			With("code_program_id", code.ProgramID)
	}

	// 3. day, in the program's zone
	program, err := v.programs.GetProgram(ctx, v.db, code.ProgramID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	loc, err := program.Location(v.loc)
	if err != nil {
		return nil, err
	}
	today := timeline.DayOf(v.now(), loc)
	if code.Day != today {
		return nil, apperr.Validation(apperr.ReasonStaleOrFutureCode, "code is valid on %s only", code.Day).
			With("code_day", code.Day.String()).
			With("today", today.String())
	}

	// 4. enrollment
	enrollment, err := v.enrollments.GetEnrollment(ctx, v.db, model.ApplicationID(code.ProgramID, scan.ParticipantID))
	if err != nil && !apperr.Is(err, apperr.ReasonEnrollmentNotFound) {
		return nil, apperr.Classify(err)
	}
	if enrollment == nil || enrollment.Status != model.EnrollmentApproved {
		return nil, apperr.Conflict(apperr.ReasonNotEnrolled, "no approved enrollment for this program").
			With("program_id", code.ProgramID)
	}

	// 5. duplicate
	present, err := v.ledger.IsPresent(ctx, scan.ParticipantID, code.ProgramID, code.Day)
	if err != nil {
		return nil, err
	}
	if present {
		return nil, duplicate(code)
	}

	// 6. mark; a concurrent scan may still win the insert
	outcome, err := v.ledger.MarkPresent(ctx, scan.ParticipantID, code.ProgramID, code.Day)
	if err != nil {
		return nil, err
	}
	if outcome == attendance.AlreadyPresent {
		return nil, duplicate(code)
	}

	slog.Info("participant checked in",
		"program_id", code.ProgramID,
		"participant_id", scan.ParticipantID,
		"day", code.Day.String())

	return &Result{ProgramID: code.ProgramID, ParticipantID: scan.ParticipantID, Day: code.Day}, nil
}

func duplicate(code Code) error {
	return apperr.Conflict(apperr.ReasonDuplicateCheckIn, "already checked in today").
		With("day", code.Day.String())
}
