package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/model"
)

// ErrDuplicateSerial is returned by CreateRequest when another request
// already carries the serial number.
var ErrDuplicateSerial = errors.New("serial number already issued")

// CertificateRepository handles certificate request operations
type CertificateRepository struct{}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository() *CertificateRepository {
	return &CertificateRepository{}
}

const certificateColumns = `id, participant_id, program_id, status, serial_number, batch_code, artifact_ref, rejection_reason, requested_at, decided_at`

// CreateRequest inserts a pending request. It reports false when the
// participant already holds a request for the program, and fails with
// ErrDuplicateSerial when the serial number is taken.
func (r *CertificateRepository) CreateRequest(ctx context.Context, db DBExecutor, req *model.CertificateRequest) (bool, error) {
	query := `
		INSERT INTO certificate_requests (` + certificateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (participant_id, program_id) DO NOTHING
	`

	req.RequestedAt = time.Now().UTC()
	inserted, err := execAffected(ctx, db, query,
		req.ID, req.ParticipantID, req.ProgramID, req.Status, req.SerialNumber,
		req.BatchCode, req.ArtifactRef, req.RejectionReason, req.RequestedAt, req.DecidedAt)
	if isUniqueViolation(err) {
		return false, fmt.Errorf("serial %s: %w", req.SerialNumber, ErrDuplicateSerial)
	}
	if err != nil {
		return false, fmt.Errorf("failed to create certificate request: %w", err)
	}
	return inserted, nil
}

// GetRequest retrieves a certificate request by ID
func (r *CertificateRepository) GetRequest(ctx context.Context, db DBExecutor, id string) (*model.CertificateRequest, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificate_requests WHERE id = ?`

	var req model.CertificateRequest
	if err := db.GetContext(ctx, &req, db.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.ReasonRequestNotFound, "certificate request %s not found", id)
		}
		return nil, fmt.Errorf("failed to get certificate request: %w", err)
	}
	return &req, nil
}

// FindRequest returns the participant's request for a program, or nil.
func (r *CertificateRepository) FindRequest(ctx context.Context, db DBExecutor, participantID, programID string) (*model.CertificateRequest, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificate_requests WHERE participant_id = ? AND program_id = ?`

	var req model.CertificateRequest
	if err := db.GetContext(ctx, &req, db.Rebind(query), participantID, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find certificate request: %w", err)
	}
	return &req, nil
}

// Approve marks a pending request approved. It reports false when the request
// is no longer pending.
func (r *CertificateRepository) Approve(ctx context.Context, db DBExecutor, id, artifactRef string, at time.Time) (bool, error) {
	query := `
		UPDATE certificate_requests
		SET status = ?, artifact_ref = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`

	approved, err := execAffected(ctx, db, query,
		model.CertificateApproved, artifactRef, at.UTC(), id, model.CertificatePending)
	if err != nil {
		return false, fmt.Errorf("failed to approve certificate request: %w", err)
	}
	return approved, nil
}

// Reject marks a pending request rejected with a reason.
func (r *CertificateRepository) Reject(ctx context.Context, db DBExecutor, id, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE certificate_requests
		SET status = ?, rejection_reason = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`

	rejected, err := execAffected(ctx, db, query,
		model.CertificateRejected, reason, at.UTC(), id, model.CertificatePending)
	if err != nil {
		return false, fmt.Errorf("failed to reject certificate request: %w", err)
	}
	return rejected, nil
}

// AssignBatch stamps every approved, not yet exported request of a program
// with batchCode and returns how many were stamped.
func (r *CertificateRepository) AssignBatch(ctx context.Context, db DBExecutor, programID, batchCode string) (int64, error) {
	query := `
		UPDATE certificate_requests
		SET batch_code = ?
		WHERE program_id = ? AND status = ? AND batch_code = ''
	`

	result, err := db.ExecContext(ctx, db.Rebind(query), batchCode, programID, model.CertificateApproved)
	if err != nil {
		return 0, fmt.Errorf("failed to assign batch: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// ListBatch returns the requests stamped with batchCode, ordered by serial.
func (r *CertificateRepository) ListBatch(ctx context.Context, db DBExecutor, programID, batchCode string) ([]model.CertificateRequest, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificate_requests
		WHERE program_id = ? AND batch_code = ?
		ORDER BY serial_number ASC
	`

	reqs := []model.CertificateRequest{}
	if err := db.SelectContext(ctx, &reqs, db.Rebind(query), programID, batchCode); err != nil {
		return nil, fmt.Errorf("failed to list batch: %w", err)
	}
	return reqs, nil
}
