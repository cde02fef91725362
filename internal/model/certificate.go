package model

import (
	"database/sql"
	"time"
)

type CertificateStatus string

const (
	CertificatePending  CertificateStatus = "pending"
	CertificateApproved CertificateStatus = "approved"
	CertificateRejected CertificateStatus = "rejected"
)

// CertificateRequest represents a participant's certificate request.
// At most one exists per (participant, program).
type CertificateRequest struct {
	ID              string            `db:"id" json:"id"`
	ParticipantID   string            `db:"participant_id" json:"participant_id"`
	ProgramID       string            `db:"program_id" json:"program_id"`
	Status          CertificateStatus `db:"status" json:"status"`
	SerialNumber    string            `db:"serial_number" json:"serial_number"`
	BatchCode       string            `db:"batch_code" json:"batch_code"`
	ArtifactRef     string            `db:"artifact_ref" json:"artifact_ref"` // set only when approved
	RejectionReason string            `db:"rejection_reason" json:"rejection_reason"`
	RequestedAt     time.Time         `db:"requested_at" json:"requested_at"`
	DecidedAt       sql.NullTime      `db:"decided_at" json:"-"`
}
