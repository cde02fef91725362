package model

import (
	"time"

	"github.com/kkkkikiki/training/internal/timeline"
)

type Remark string

const (
	RemarkPresent Remark = "present"
	RemarkAbsent  Remark = "absent"
)

// AttendanceEntry is one ledger line; (participant, program, day) is unique.
type AttendanceEntry struct {
	ParticipantID string       `db:"participant_id" json:"participant_id"`
	ProgramID     string       `db:"program_id" json:"program_id"`
	Day           timeline.Day `db:"day" json:"day"`
	Remark        Remark       `db:"remark" json:"remark"`
	RecordedAt    time.Time    `db:"recorded_at" json:"recorded_at"`
}
