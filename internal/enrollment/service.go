// Package enrollment handles applications to programs and their approval
// against the program's capacity.
package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/conflict"
	"github.com/kkkkikiki/training/internal/lifecycle"
	"github.com/kkkkikiki/training/internal/metrics"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/repository"
)

// Application is a participant's request to join a program.
type Application struct {
	ProgramID       string
	ParticipantID   string
	ParticipantName string
}

// Service implements enrollment
type Service struct {
	db          *sqlx.DB
	programs    *repository.ProgramRepository
	enrollments *repository.EnrollmentRepository
	loc         *time.Location
	now         func() time.Time
}

// NewService creates a new enrollment service
func NewService(db *sqlx.DB, loc *time.Location) *Service {
	return &Service{
		db:          db,
		programs:    repository.NewProgramRepository(),
		enrollments: repository.NewEnrollmentRepository(),
		loc:         loc,
		now:         time.Now,
	}
}

// Apply files a pending application. It refuses programs without any valid
// day, programs that ended or are full, repeat applications and programs
// whose span overlaps one of the participant's active enrollments.
func (s *Service) Apply(ctx context.Context, app Application) (*model.Enrollment, error) {
	app.ParticipantName = strings.TrimSpace(app.ParticipantName)
	if app.ParticipantName == "" {
		return nil, apperr.InvalidFields(apperr.FieldError{Field: "participant_name", Error: "required"})
	}

	program, err := s.programs.GetProgram(ctx, s.db, app.ProgramID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	tl, loc, err := program.Timeline(s.loc)
	if err != nil {
		return nil, err
	}
	if tl.IsEmpty() {
		return nil, apperr.Validation(apperr.ReasonEmptyTimeline, "program has no scheduled days").
			With("program_id", program.ID)
	}

	switch status := lifecycle.Classify(tl, s.now(), program.SlotsRemaining, loc); status {
	case lifecycle.StatusSlotsFull:
		return nil, apperr.SlotsExhausted(program.ID, program.Capacity)
	case lifecycle.StatusEnded:
		return nil, apperr.Conflict(apperr.ReasonProgramClosed, "program has ended").
			With("program_id", program.ID)
	}

	active, err := s.enrollments.ListByParticipant(ctx, s.db, app.ParticipantID, model.EnrollmentPending, model.EnrollmentApproved)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	existing, err := s.activeTimelines(ctx, active)
	if err != nil {
		return nil, err
	}
	if other, found := conflict.FirstConflict(app.ParticipantID, program.ID, tl, existing); found {
		return nil, apperr.Conflict(apperr.ReasonScheduleConflict, "schedule overlaps another enrollment").
			With("conflicting_program_id", other.ProgramID)
	}

	e := &model.Enrollment{
		ApplicationID:   model.ApplicationID(program.ID, app.ParticipantID),
		ProgramID:       program.ID,
		ParticipantID:   app.ParticipantID,
		ParticipantName: app.ParticipantName,
		Status:          model.EnrollmentPending,
	}
	inserted, err := s.enrollments.CreateEnrollment(ctx, s.db, e)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if !inserted {
		return nil, apperr.Conflict(apperr.ReasonAlreadyApplied, "participant already applied to this program").
			With("application_id", e.ApplicationID)
	}

	slog.Info("application filed", "application_id", e.ApplicationID)
	return e, nil
}

func (s *Service) activeTimelines(ctx context.Context, active []model.Enrollment) ([]conflict.Enrollment, error) {
	ids := make([]string, 0, len(active))
	for _, e := range active {
		ids = append(ids, e.ProgramID)
	}
	programs, err := s.programs.GetPrograms(ctx, s.db, ids)
	if err != nil {
		return nil, apperr.Classify(err)
	}

	out := make([]conflict.Enrollment, 0, len(programs))
	for _, p := range programs {
		tl, _, err := p.Timeline(s.loc)
		if err != nil {
			// A broken schedule cannot block other applications.
			slog.Warn("skipping unreadable schedule", "program_id", p.ID, "error", err)
			continue
		}
		out = append(out, conflict.Enrollment{ProgramID: p.ID, Timeline: tl})
	}
	return out, nil
}

// Approve moves a pending application to approved and consumes one slot.
// Both writes commit together; when no slot is left neither happens.
func (s *Service) Approve(ctx context.Context, applicationID string) (approved *model.Enrollment, err error) {
	// Start timing for metrics
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failed"
			if reason := apperr.ReasonOf(err); reason != "" {
				status = string(reason)
			}
		}
		metrics.RecordApprovalDuration(status, time.Since(start).Seconds())
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	e, err := s.enrollments.GetEnrollment(ctx, tx, applicationID)
	if err != nil {
		return nil, apperr.Classify(err)
	}

	program, err := s.programs.GetProgram(ctx, tx, e.ProgramID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	tl, _, err := program.Timeline(s.loc)
	if err != nil {
		return nil, err
	}
	if tl.IsEmpty() {
		return nil, apperr.Validation(apperr.ReasonEmptyTimeline, "program has no scheduled days").
			With("program_id", program.ID)
	}

	decided, err := s.enrollments.Decide(ctx, tx, applicationID, model.EnrollmentApproved, s.now())
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if !decided {
		current, err := s.enrollments.GetEnrollment(ctx, tx, applicationID)
		if err != nil {
			return nil, apperr.Classify(err)
		}
		return nil, invalidTransition(current, model.EnrollmentApproved)
	}

	consumed, err := s.programs.ConsumeSlot(ctx, tx, e.ProgramID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if !consumed {
		return nil, apperr.SlotsExhausted(program.ID, program.Capacity)
	}

	approved, err = s.enrollments.GetEnrollment(ctx, tx, applicationID)
	if err != nil {
		return nil, apperr.Classify(err)
	}

	// Commit DB transaction - this guarantees consistency
	if err := tx.Commit(); err != nil {
		return nil, apperr.Classify(fmt.Errorf("failed to commit transaction: %w", err))
	}

	slog.Info("application approved", "application_id", applicationID, "program_id", e.ProgramID)
	return approved, nil
}

// Reject moves a pending application to rejected.
func (s *Service) Reject(ctx context.Context, applicationID string) (*model.Enrollment, error) {
	e, err := s.enrollments.GetEnrollment(ctx, s.db, applicationID)
	if err != nil {
		return nil, apperr.Classify(err)
	}

	decided, err := s.enrollments.Decide(ctx, s.db, applicationID, model.EnrollmentRejected, s.now())
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if !decided {
		current, err := s.enrollments.GetEnrollment(ctx, s.db, applicationID)
		if err != nil {
			return nil, apperr.Classify(err)
		}
		return nil, invalidTransition(current, model.EnrollmentRejected)
	}

	slog.Info("application rejected", "application_id", applicationID, "program_id", e.ProgramID)
	return s.enrollments.GetEnrollment(ctx, s.db, applicationID)
}

// Get returns an application
func (s *Service) Get(ctx context.Context, applicationID string) (*model.Enrollment, error) {
	e, err := s.enrollments.GetEnrollment(ctx, s.db, applicationID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return e, nil
}

func invalidTransition(e *model.Enrollment, to model.EnrollmentStatus) error {
	return apperr.Conflict(apperr.ReasonInvalidTransition, "application is %s", e.Status).
		With("application_id", e.ApplicationID).
		With("status", string(e.Status)).
		With("target", string(to))
}
