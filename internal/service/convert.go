package service

import (
	"database/sql"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/catalog"
	"github.com/kkkkikiki/training/internal/export"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/rpc"
	"github.com/kkkkikiki/training/internal/timeline"
)

func toProgram(v *catalog.View) *rpc.Program {
	return &rpc.Program{
		ID:                v.Program.ID,
		Title:             v.Program.Title,
		Category:          v.Program.Category,
		TimeZone:          v.Location.String(),
		Capacity:          v.Program.Capacity,
		SlotsRemaining:    v.Program.SlotsRemaining,
		ScheduleMode:      string(v.Timeline.Mode()),
		Days:              v.Timeline.Strings(),
		Today:             v.Today.String(),
		Status:            string(v.Status),
		AcceptsEnrollment: v.AcceptsEnrollment,
	}
}

func toEnrollment(e *model.Enrollment) *rpc.Enrollment {
	return &rpc.Enrollment{
		ApplicationID:   e.ApplicationID,
		ProgramID:       e.ProgramID,
		ParticipantID:   e.ParticipantID,
		ParticipantName: e.ParticipantName,
		Status:          string(e.Status),
		AppliedAt:       timestamppb.New(e.AppliedAt),
		DecidedAt:       nullTimestamp(e.DecidedAt),
	}
}

func toCertificate(c *model.CertificateRequest) *rpc.Certificate {
	return &rpc.Certificate{
		ID:              c.ID,
		ProgramID:       c.ProgramID,
		ParticipantID:   c.ParticipantID,
		Status:          string(c.Status),
		SerialNumber:    c.SerialNumber,
		BatchCode:       c.BatchCode,
		ArtifactRef:     c.ArtifactRef,
		RejectionReason: c.RejectionReason,
		RequestedAt:     timestamppb.New(c.RequestedAt),
		DecidedAt:       nullTimestamp(c.DecidedAt),
	}
}

func toExportResult(b *export.Batch) *rpc.ExportResult {
	res := &rpc.ExportResult{
		BatchCode: b.Code,
		ProgramID: b.ProgramID,
		Rows:      make([]rpc.ExportRow, 0, len(b.Rows)),
	}
	for _, r := range b.Rows {
		res.Rows = append(res.Rows, rpc.ExportRow{
			SerialNumber:    r.SerialNumber,
			BatchCode:       r.BatchCode,
			ParticipantID:   r.ParticipantID,
			ParticipantName: r.ParticipantName,
			FirstDay:        r.FirstDay,
			LastDay:         r.LastDay,
			Attended:        r.Attended,
			Total:           r.Total,
			ArtifactRef:     r.ArtifactRef,
		})
	}
	return res
}

func nullTimestamp(t sql.NullTime) *timestamppb.Timestamp {
	if !t.Valid {
		return nil
	}
	return timestamppb.New(t.Time)
}

func parseDay(field, s string) (timeline.Day, error) {
	d, err := timeline.ParseDay(s)
	if err != nil {
		return timeline.Day{}, apperr.InvalidFields(apperr.FieldError{Field: field, Error: "must be a calendar date (YYYY-MM-DD)"})
	}
	return d, nil
}
