// Package certificate decides certificate eligibility and keeps the
// request state machine: pending, then approved or rejected, once.
package certificate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/attendance"
	"github.com/kkkkikiki/training/internal/metrics"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/repository"
)

// Outcome is the result of a certificate request.
type Outcome struct {
	Request      *model.CertificateRequest `json:"request"`
	Created      bool                      `json:"created"`
	Completeness attendance.Completeness   `json:"completeness"`
}

const maxSerialAttempts = 1000

// Workflow handles certificate requests and their approval.
type Workflow struct {
	db           *sqlx.DB
	programs     *repository.ProgramRepository
	enrollments  *repository.EnrollmentRepository
	certificates *repository.CertificateRepository
	ledger       *attendance.Ledger
	loc          *time.Location
	now          func() time.Time
}

// NewWorkflow creates a certificate workflow
func NewWorkflow(db *sqlx.DB, ledger *attendance.Ledger, loc *time.Location) *Workflow {
	return &Workflow{
		db:           db,
		programs:     repository.NewProgramRepository(),
		enrollments:  repository.NewEnrollmentRepository(),
		certificates: repository.NewCertificateRepository(),
		ledger:       ledger,
		loc:          loc,
		now:          time.Now,
	}
}

// Request asks for the participant's certificate. An approved request is
// returned as is; a pending or rejected one is refused with its own reason.
func (w *Workflow) Request(ctx context.Context, participantID, programID string) (out *Outcome, err error) {
	defer func() {
		switch {
		case err != nil:
			metrics.RecordCertificateRequest(outcomeLabel(err))
		case out.Created:
			metrics.RecordCertificateRequest("created")
		default:
			metrics.RecordCertificateRequest("existing")
		}
	}()

	program, err := w.programs.GetProgram(ctx, w.db, programID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	tl, _, err := program.Timeline(w.loc)
	if err != nil {
		return nil, err
	}

	enrollment, err := w.enrollments.GetEnrollment(ctx, w.db, model.ApplicationID(programID, participantID))
	if err != nil && !apperr.Is(err, apperr.ReasonEnrollmentNotFound) {
		return nil, apperr.Classify(err)
	}
	if enrollment == nil || enrollment.Status != model.EnrollmentApproved {
		return nil, apperr.Conflict(apperr.ReasonNotEnrolled, "no approved enrollment for this program").
			With("program_id", programID)
	}

	completeness, err := w.ledger.Completeness(ctx, participantID, programID, tl)
	if err != nil {
		return nil, err
	}
	if !completeness.Complete {
		return nil, apperr.AttendanceIncomplete(completeness.Attended, completeness.Total)
	}

	existing, err := w.certificates.FindRequest(ctx, w.db, participantID, programID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if existing != nil {
		return existingOutcome(existing, completeness)
	}

	approved, err := w.enrollments.ListApproved(ctx, w.db, programID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	first, _ := tl.First()

	req := &model.CertificateRequest{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		ProgramID:     programID,
		Status:        model.CertificatePending,
	}
	// Serials are unique across all requests; a taken one moves to the
	// next free rank.
	rank := Rank(participantID, approved)
	for attempt := 0; ; attempt++ {
		if attempt == maxSerialAttempts {
			return nil, apperr.Conflict(apperr.ReasonSerialUnavailable, "no free serial number for this request").
				With("program_id", programID)
		}
		req.SerialNumber = SerialNumber(enrollment.ParticipantName, program.Category, first, rank+attempt)

		inserted, err := w.certificates.CreateRequest(ctx, w.db, req)
		if errors.Is(err, repository.ErrDuplicateSerial) {
			existing, err := w.certificates.FindRequest(ctx, w.db, participantID, programID)
			if err != nil {
				return nil, apperr.Classify(err)
			}
			if existing != nil {
				return existingOutcome(existing, completeness)
			}
			continue
		}
		if err != nil {
			return nil, apperr.Classify(err)
		}
		if inserted {
			break
		}

		// Lost the race to a concurrent request for the same pair.
		existing, err := w.certificates.FindRequest(ctx, w.db, participantID, programID)
		if err != nil {
			return nil, apperr.Classify(err)
		}
		if existing == nil {
			return nil, apperr.AlreadyPending("")
		}
		return existingOutcome(existing, completeness)
	}

	slog.Info("certificate requested",
		"request_id", req.ID,
		"program_id", programID,
		"participant_id", participantID,
		"serial_number", req.SerialNumber)

	return &Outcome{Request: req, Created: true, Completeness: completeness}, nil
}

func existingOutcome(req *model.CertificateRequest, c attendance.Completeness) (*Outcome, error) {
	switch req.Status {
	case model.CertificateApproved:
		return &Outcome{Request: req, Completeness: c}, nil
	case model.CertificateRejected:
		return nil, apperr.PermanentlyRejected(req.ID, req.RejectionReason)
	default:
		return nil, apperr.AlreadyPending(req.ID)
	}
}

func outcomeLabel(err error) string {
	if reason := apperr.ReasonOf(err); reason != "" {
		return string(reason)
	}
	return "error"
}

// Approve attaches the issued artifact to a pending request.
func (w *Workflow) Approve(ctx context.Context, requestID, artifactRef string) (*model.CertificateRequest, error) {
	if artifactRef == "" {
		return nil, apperr.InvalidFields(apperr.FieldError{Field: "artifact_ref", Error: "required"})
	}

	ok, err := w.certificates.Approve(ctx, w.db, requestID, artifactRef, w.now())
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return w.decided(ctx, requestID, ok, model.CertificateApproved)
}

// Reject closes a pending request for good.
func (w *Workflow) Reject(ctx context.Context, requestID, reason string) (*model.CertificateRequest, error) {
	ok, err := w.certificates.Reject(ctx, w.db, requestID, reason, w.now())
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return w.decided(ctx, requestID, ok, model.CertificateRejected)
}

func (w *Workflow) decided(ctx context.Context, requestID string, ok bool, to model.CertificateStatus) (*model.CertificateRequest, error) {
	req, err := w.certificates.GetRequest(ctx, w.db, requestID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if !ok {
		return nil, apperr.Conflict(apperr.ReasonInvalidTransition, "request is %s", req.Status).
			With("request_id", requestID).
			With("status", string(req.Status)).
			With("target", string(to))
	}

	slog.Info("certificate request decided", "request_id", requestID, "status", string(to))
	return req, nil
}
