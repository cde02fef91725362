package model

import (
	"database/sql"
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// Enrollment represents a participant's application to a program.
type Enrollment struct {
	ApplicationID   string           `db:"application_id" json:"application_id"`
	ProgramID       string           `db:"program_id" json:"program_id"`
	ParticipantID   string           `db:"participant_id" json:"participant_id"`
	ParticipantName string           `db:"participant_name" json:"participant_name"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	AppliedAt       time.Time        `db:"applied_at" json:"applied_at"`
	DecidedAt       sql.NullTime     `db:"decided_at" json:"-"`
}

// ApplicationID is the stable composite key of a participant's application.
func ApplicationID(programID, participantID string) string {
	return programID + ":" + participantID
}
