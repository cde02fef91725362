package rpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/kkkkikiki/training/internal/timeline"
)

// Programs

type CreateProgramRequest struct {
	ID       string               `json:"id,omitempty" validate:"omitempty,max=64,excludesall=:"`
	Title    string               `json:"title" validate:"notblank,max=200"`
	Category string               `json:"category" validate:"max=100"`
	TimeZone string               `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	Capacity int                  `json:"capacity" validate:"gte=0"`
	Schedule timeline.RawSchedule `json:"schedule"`
}

type GetProgramRequest struct {
	ProgramID string `json:"program_id" validate:"notblank"`
}

type RescheduleProgramRequest struct {
	ProgramID string               `json:"program_id" validate:"notblank"`
	Schedule  timeline.RawSchedule `json:"schedule"`
}

type Program struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Category          string   `json:"category"`
	TimeZone          string   `json:"time_zone"`
	Capacity          int      `json:"capacity"`
	SlotsRemaining    int      `json:"slots_remaining"`
	ScheduleMode      string   `json:"schedule_mode"`
	Days              []string `json:"days"`
	Today             string   `json:"today"`
	Status            string   `json:"status"`
	AcceptsEnrollment bool     `json:"accepts_enrollment"`
}

// Enrollment

type ApplyRequest struct {
	ProgramID       string `json:"program_id" validate:"notblank"`
	ParticipantID   string `json:"participant_id" validate:"notblank,excludesall=:"`
	ParticipantName string `json:"participant_name" validate:"notblank,max=200"`
}

type DecideEnrollmentRequest struct {
	ApplicationID string `json:"application_id" validate:"notblank"`
}

type Enrollment struct {
	ApplicationID   string                 `json:"application_id"`
	ProgramID       string                 `json:"program_id"`
	ParticipantID   string                 `json:"participant_id"`
	ParticipantName string                 `json:"participant_name"`
	Status          string                 `json:"status"`
	AppliedAt       *timestamppb.Timestamp `json:"applied_at"`
	DecidedAt       *timestamppb.Timestamp `json:"decided_at,omitempty"`
}

// Check-in

type CheckInRequest struct {
	Payload           string `json:"payload" validate:"required"`
	ExpectedProgramID string `json:"expected_program_id" validate:"notblank"`
	ParticipantID     string `json:"participant_id" validate:"notblank"`
}

type CheckInResult struct {
	ProgramID     string `json:"program_id"`
	ParticipantID string `json:"participant_id"`
	Day           string `json:"day"`
}

type IssueCheckInCodeRequest struct {
	ProgramID string `json:"program_id" validate:"notblank"`
	Day       string `json:"day,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type CheckInCode struct {
	ProgramID string `json:"program_id"`
	Day       string `json:"day"`
	Payload   string `json:"payload"`
}

// Attendance

type GetAttendanceRequest struct {
	ProgramID     string `json:"program_id" validate:"notblank"`
	ParticipantID string `json:"participant_id" validate:"notblank"`
}

type AttendanceDay struct {
	Day  string `json:"day"`
	Mark string `json:"mark"`
}

type Attendance struct {
	ProgramID     string          `json:"program_id"`
	ParticipantID string          `json:"participant_id"`
	Attended      int             `json:"attended"`
	Total         int             `json:"total"`
	Complete      bool            `json:"complete"`
	Days          []AttendanceDay `json:"days"`
}

type RecordAbsenceRequest struct {
	ProgramID     string `json:"program_id" validate:"notblank"`
	ParticipantID string `json:"participant_id" validate:"notblank"`
	Day           string `json:"day" validate:"required,datetime=2006-01-02"`
}

type AbsenceResult struct {
	Day      string `json:"day"`
	Recorded bool   `json:"recorded"` // false when the day already had an entry
}

// Certificates

type RequestCertificateRequest struct {
	ProgramID     string `json:"program_id" validate:"notblank"`
	ParticipantID string `json:"participant_id" validate:"notblank"`
}

type ApproveCertificateRequest struct {
	RequestID   string `json:"request_id" validate:"notblank"`
	ArtifactRef string `json:"artifact_ref" validate:"notblank"`
}

type RejectCertificateRequest struct {
	RequestID string `json:"request_id" validate:"notblank"`
	Reason    string `json:"reason" validate:"max=500"`
}

type Certificate struct {
	ID              string                 `json:"id"`
	ProgramID       string                 `json:"program_id"`
	ParticipantID   string                 `json:"participant_id"`
	Status          string                 `json:"status"`
	SerialNumber    string                 `json:"serial_number"`
	BatchCode       string                 `json:"batch_code,omitempty"`
	ArtifactRef     string                 `json:"artifact_ref,omitempty"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	RequestedAt     *timestamppb.Timestamp `json:"requested_at"`
	DecidedAt       *timestamppb.Timestamp `json:"decided_at,omitempty"`
}

type CertificateResult struct {
	Certificate *Certificate `json:"certificate"`
	Created     bool         `json:"created"`
	Attended    int          `json:"attended"`
	Total       int          `json:"total"`
}

// Export

type ExportCertificatesRequest struct {
	ProgramID string `json:"program_id" validate:"notblank"`
}

type ExportRow struct {
	SerialNumber    string `json:"serial_number"`
	BatchCode       string `json:"batch_code"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	FirstDay        string `json:"first_day"`
	LastDay         string `json:"last_day"`
	Attended        int    `json:"attended"`
	Total           int    `json:"total"`
	ArtifactRef     string `json:"artifact_ref"`
}

type ExportResult struct {
	BatchCode string      `json:"batch_code"`
	ProgramID string      `json:"program_id"`
	Rows      []ExportRow `json:"rows"`
}
