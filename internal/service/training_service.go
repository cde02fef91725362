package service

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/attendance"
	"github.com/kkkkikiki/training/internal/catalog"
	"github.com/kkkkikiki/training/internal/certificate"
	"github.com/kkkkikiki/training/internal/checkin"
	"github.com/kkkkikiki/training/internal/enrollment"
	"github.com/kkkkikiki/training/internal/export"
	"github.com/kkkkikiki/training/internal/rpc"
)

// TrainingServer implements the training service
type TrainingServer struct {
	catalog    *catalog.Catalog
	enrollment *enrollment.Service
	ledger     *attendance.Ledger
	verifier   *checkin.Verifier
	workflow   *certificate.Workflow
	exporter   *export.Exporter
}

// Option adjusts a TrainingServer.
type Option func(*TrainingServer)

// WithMaxScheduleDays bounds how many days a program schedule may cover.
func WithMaxScheduleDays(n int) Option {
	return func(s *TrainingServer) {
		s.catalog.WithMaxScheduleDays(n)
	}
}

// NewTrainingServer wires the engine over db. loc is the engine-wide zone;
// renderer may be nil when no document renderer is configured.
func NewTrainingServer(db *sqlx.DB, loc *time.Location, renderer export.Renderer, opts ...Option) *TrainingServer {
	ledger := attendance.NewLedger(db)
	s := &TrainingServer{
		catalog:    catalog.New(db, loc),
		enrollment: enrollment.NewService(db, loc),
		ledger:     ledger,
		verifier:   checkin.NewVerifier(db, ledger, loc),
		workflow:   certificate.NewWorkflow(db, ledger, loc),
		exporter:   export.NewExporter(db, ledger, renderer, loc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ rpc.TrainingServiceHandler = (*TrainingServer)(nil)

// CreateProgram creates a new program
func (s *TrainingServer) CreateProgram(
	ctx context.Context,
	req *connect.Request[rpc.CreateProgramRequest],
) (*connect.Response[rpc.Program], error) {
	view, err := s.catalog.Create(ctx, catalog.NewProgram{
		ID:       req.Msg.ID,
		Title:    req.Msg.Title,
		Category: req.Msg.Category,
		TimeZone: req.Msg.TimeZone,
		Capacity: req.Msg.Capacity,
		Schedule: req.Msg.Schedule,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toProgram(view)), nil
}

// GetProgram returns a program with its timeline and current status
func (s *TrainingServer) GetProgram(
	ctx context.Context,
	req *connect.Request[rpc.GetProgramRequest],
) (*connect.Response[rpc.Program], error) {
	view, err := s.catalog.Get(ctx, req.Msg.ProgramID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toProgram(view)), nil
}

// RescheduleProgram replaces a program's schedule
func (s *TrainingServer) RescheduleProgram(
	ctx context.Context,
	req *connect.Request[rpc.RescheduleProgramRequest],
) (*connect.Response[rpc.Program], error) {
	view, err := s.catalog.Reschedule(ctx, req.Msg.ProgramID, req.Msg.Schedule)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toProgram(view)), nil
}

// Apply files an application
func (s *TrainingServer) Apply(
	ctx context.Context,
	req *connect.Request[rpc.ApplyRequest],
) (*connect.Response[rpc.Enrollment], error) {
	e, err := s.enrollment.Apply(ctx, enrollment.Application{
		ProgramID:       req.Msg.ProgramID,
		ParticipantID:   req.Msg.ParticipantID,
		ParticipantName: req.Msg.ParticipantName,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toEnrollment(e)), nil
}

// ApproveEnrollment approves an application, consuming one slot
func (s *TrainingServer) ApproveEnrollment(
	ctx context.Context,
	req *connect.Request[rpc.DecideEnrollmentRequest],
) (*connect.Response[rpc.Enrollment], error) {
	e, err := s.enrollment.Approve(ctx, req.Msg.ApplicationID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toEnrollment(e)), nil
}

// RejectEnrollment rejects an application
func (s *TrainingServer) RejectEnrollment(
	ctx context.Context,
	req *connect.Request[rpc.DecideEnrollmentRequest],
) (*connect.Response[rpc.Enrollment], error) {
	e, err := s.enrollment.Reject(ctx, req.Msg.ApplicationID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toEnrollment(e)), nil
}

// IssueCheckInCode returns the payload to display for a program day,
// today in the program's zone by default
func (s *TrainingServer) IssueCheckInCode(
	ctx context.Context,
	req *connect.Request[rpc.IssueCheckInCodeRequest],
) (*connect.Response[rpc.CheckInCode], error) {
	view, err := s.catalog.Get(ctx, req.Msg.ProgramID)
	if err != nil {
		return nil, err
	}
	day := view.Today
	if req.Msg.Day != "" {
		if day, err = parseDay("day", req.Msg.Day); err != nil {
			return nil, err
		}
	}
	return connect.NewResponse(&rpc.CheckInCode{
		ProgramID: view.Program.ID,
		Day:       day.String(),
		Payload:   checkin.EncodeCode(view.Program.ID, day),
	}), nil
}

// CheckIn verifies a scanned code and marks attendance
func (s *TrainingServer) CheckIn(
	ctx context.Context,
	req *connect.Request[rpc.CheckInRequest],
) (*connect.Response[rpc.CheckInResult], error) {
	res, err := s.verifier.Verify(ctx, checkin.Scan{
		Payload:           req.Msg.Payload,
		ExpectedProgramID: req.Msg.ExpectedProgramID,
		ParticipantID:     req.Msg.ParticipantID,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.CheckInResult{
		ProgramID:     res.ProgramID,
		ParticipantID: res.ParticipantID,
		Day:           res.Day.String(),
	}), nil
}

// GetAttendance returns a participant's completeness and attendance sheet
func (s *TrainingServer) GetAttendance(
	ctx context.Context,
	req *connect.Request[rpc.GetAttendanceRequest],
) (*connect.Response[rpc.Attendance], error) {
	view, err := s.catalog.Get(ctx, req.Msg.ProgramID)
	if err != nil {
		return nil, err
	}
	c, err := s.ledger.Completeness(ctx, req.Msg.ParticipantID, req.Msg.ProgramID, view.Timeline)
	if err != nil {
		return nil, err
	}
	sheet, err := s.ledger.Sheet(ctx, req.Msg.ParticipantID, req.Msg.ProgramID, view.Timeline, view.Today)
	if err != nil {
		return nil, err
	}

	res := &rpc.Attendance{
		ProgramID:     req.Msg.ProgramID,
		ParticipantID: req.Msg.ParticipantID,
		Attended:      c.Attended,
		Total:         c.Total,
		Complete:      c.Complete,
		Days:          make([]rpc.AttendanceDay, 0, len(sheet)),
	}
	for _, row := range sheet {
		res.Days = append(res.Days, rpc.AttendanceDay{Day: row.Day.String(), Mark: string(row.Mark)})
	}
	return connect.NewResponse(res), nil
}

// RecordAbsence materializes an absence for a program day. A day that
// already has an entry keeps it.
func (s *TrainingServer) RecordAbsence(
	ctx context.Context,
	req *connect.Request[rpc.RecordAbsenceRequest],
) (*connect.Response[rpc.AbsenceResult], error) {
	view, err := s.catalog.Get(ctx, req.Msg.ProgramID)
	if err != nil {
		return nil, err
	}
	day, err := parseDay("day", req.Msg.Day)
	if err != nil {
		return nil, err
	}
	if !view.Timeline.Contains(day) {
		return nil, apperr.InvalidFields(apperr.FieldError{Field: "day", Error: "not a day of this program"})
	}

	recorded, err := s.ledger.RecordAbsence(ctx, req.Msg.ParticipantID, req.Msg.ProgramID, day)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.AbsenceResult{Day: day.String(), Recorded: recorded}), nil
}

// RequestCertificate requests a participant's certificate
func (s *TrainingServer) RequestCertificate(
	ctx context.Context,
	req *connect.Request[rpc.RequestCertificateRequest],
) (*connect.Response[rpc.CertificateResult], error) {
	out, err := s.workflow.Request(ctx, req.Msg.ParticipantID, req.Msg.ProgramID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.CertificateResult{
		Certificate: toCertificate(out.Request),
		Created:     out.Created,
		Attended:    out.Completeness.Attended,
		Total:       out.Completeness.Total,
	}), nil
}

// ApproveCertificate attaches the issued artifact to a pending request
func (s *TrainingServer) ApproveCertificate(
	ctx context.Context,
	req *connect.Request[rpc.ApproveCertificateRequest],
) (*connect.Response[rpc.Certificate], error) {
	c, err := s.workflow.Approve(ctx, req.Msg.RequestID, req.Msg.ArtifactRef)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toCertificate(c)), nil
}

// RejectCertificate rejects a pending request for good
func (s *TrainingServer) RejectCertificate(
	ctx context.Context,
	req *connect.Request[rpc.RejectCertificateRequest],
) (*connect.Response[rpc.Certificate], error) {
	c, err := s.workflow.Reject(ctx, req.Msg.RequestID, req.Msg.Reason)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toCertificate(c)), nil
}

// ExportCertificates batches the program's approved certificates
func (s *TrainingServer) ExportCertificates(
	ctx context.Context,
	req *connect.Request[rpc.ExportCertificatesRequest],
) (*connect.Response[rpc.ExportResult], error) {
	batch, err := s.exporter.Export(ctx, req.Msg.ProgramID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(toExportResult(batch)), nil
}
