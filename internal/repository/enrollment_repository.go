package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/model"
)

// EnrollmentRepository handles enrollment data operations
type EnrollmentRepository struct{}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository() *EnrollmentRepository {
	return &EnrollmentRepository{}
}

const enrollmentColumns = `application_id, program_id, participant_id, participant_name, status, applied_at, decided_at`

// CreateEnrollment inserts a pending application. It reports false when the
// participant already applied to the program.
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, db DBExecutor, e *model.Enrollment) (bool, error) {
	query := `
		INSERT INTO enrollments (` + enrollmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`

	e.AppliedAt = time.Now().UTC()
	inserted, err := execAffected(ctx, db, query,
		e.ApplicationID, e.ProgramID, e.ParticipantID, e.ParticipantName, e.Status, e.AppliedAt, e.DecidedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create enrollment: %w", err)
	}
	return inserted, nil
}

// GetEnrollment retrieves an enrollment by application ID
func (r *EnrollmentRepository) GetEnrollment(ctx context.Context, db DBExecutor, applicationID string) (*model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE application_id = ?`

	var e model.Enrollment
	if err := db.GetContext(ctx, &e, db.Rebind(query), applicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.ReasonEnrollmentNotFound, "application %s not found", applicationID)
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &e, nil
}

// ListByParticipant returns the participant's enrollments in the given statuses.
func (r *EnrollmentRepository) ListByParticipant(ctx context.Context, db DBExecutor, participantID string, statuses ...model.EnrollmentStatus) ([]model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE participant_id = ?`
	args := []interface{}{participantID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY applied_at ASC, application_id ASC`

	enrollments := []model.Enrollment{}
	if err := db.SelectContext(ctx, &enrollments, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListApproved returns a program's approved enrollees in approval order.
func (r *EnrollmentRepository) ListApproved(ctx context.Context, db DBExecutor, programID string) ([]model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE program_id = ? AND status = ?
		ORDER BY decided_at ASC, application_id ASC
	`

	enrollments := []model.Enrollment{}
	if err := db.SelectContext(ctx, &enrollments, db.Rebind(query), programID, model.EnrollmentApproved); err != nil {
		return nil, fmt.Errorf("failed to list approved enrollments: %w", err)
	}
	return enrollments, nil
}

// Decide moves a pending application to status. It reports false when the
// application is no longer pending.
func (r *EnrollmentRepository) Decide(ctx context.Context, db DBExecutor, applicationID string, status model.EnrollmentStatus, at time.Time) (bool, error) {
	query := `
		UPDATE enrollments
		SET status = ?, decided_at = ?
		WHERE application_id = ? AND status = ?
	`

	decided, err := execAffected(ctx, db, query, status, at.UTC(), applicationID, model.EnrollmentPending)
	if err != nil {
		return false, fmt.Errorf("failed to decide enrollment: %w", err)
	}
	return decided, nil
}
