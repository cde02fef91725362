// Package export groups approved certificates into batches and hands their
// data rows to the external renderer. Documents are never rendered here.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/attendance"
	"github.com/kkkkikiki/training/internal/certificate"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/repository"
	"github.com/kkkkikiki/training/internal/timeline"
)

// Row is one certificate's data as the renderer receives it.
type Row struct {
	SerialNumber    string `json:"serial_number"`
	BatchCode       string `json:"batch_code"`
	RequestID       string `json:"request_id"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	ProgramTitle    string `json:"program_title"`
	Category        string `json:"category"`
	FirstDay        string `json:"first_day"`
	LastDay         string `json:"last_day"`
	Attended        int    `json:"attended"`
	Total           int    `json:"total"`
	ArtifactRef     string `json:"artifact_ref"`
}

// Batch is a set of certificates exported together.
type Batch struct {
	Code      string `json:"batch_code"`
	ProgramID string `json:"program_id"`
	Rows      []Row  `json:"rows"`
}

// Renderer receives batches; it is the external document collaborator.
type Renderer interface {
	Render(ctx context.Context, batch *Batch) error
}

// Exporter builds batches
type Exporter struct {
	db           *sqlx.DB
	programs     *repository.ProgramRepository
	enrollments  *repository.EnrollmentRepository
	certificates *repository.CertificateRepository
	ledger       *attendance.Ledger
	renderer     Renderer
	loc          *time.Location
	now          func() time.Time
	rand         io.Reader
}

// NewExporter creates an exporter. A nil renderer only stamps and returns
// batches.
func NewExporter(db *sqlx.DB, ledger *attendance.Ledger, renderer Renderer, loc *time.Location) *Exporter {
	return &Exporter{
		db:           db,
		programs:     repository.NewProgramRepository(),
		enrollments:  repository.NewEnrollmentRepository(),
		certificates: repository.NewCertificateRepository(),
		ledger:       ledger,
		renderer:     renderer,
		loc:          loc,
		now:          time.Now,
	}
}

// Export stamps every approved, not yet exported certificate of the program
// with one new batch code and returns the batch. An empty batch has no code.
func (e *Exporter) Export(ctx context.Context, programID string) (*Batch, error) {
	program, err := e.programs.GetProgram(ctx, e.db, programID)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	tl, loc, err := program.Timeline(e.loc)
	if err != nil {
		return nil, err
	}

	code, err := certificate.BatchCode(timeline.DayOf(e.now(), loc), program.Title, e.rand)
	if err != nil {
		return nil, err
	}
	stamped, err := e.certificates.AssignBatch(ctx, e.db, programID, code)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if stamped == 0 {
		return &Batch{ProgramID: programID, Rows: []Row{}}, nil
	}

	reqs, err := e.certificates.ListBatch(ctx, e.db, programID, code)
	if err != nil {
		return nil, apperr.Classify(err)
	}

	batch := &Batch{Code: code, ProgramID: programID, Rows: make([]Row, 0, len(reqs))}
	for i := range reqs {
		row, err := e.row(ctx, program, tl, &reqs[i])
		if err != nil {
			return nil, err
		}
		batch.Rows = append(batch.Rows, row)
	}

	slog.Info("certificates batched", "program_id", programID, "batch_code", code, "count", len(batch.Rows))

	if e.renderer != nil {
		if err := e.renderer.Render(ctx, batch); err != nil {
			return batch, fmt.Errorf("render batch %s: %w", code, err)
		}
	}
	return batch, nil
}

func (e *Exporter) row(ctx context.Context, p *model.Program, tl timeline.Timeline, req *model.CertificateRequest) (Row, error) {
	enrollment, err := e.enrollments.GetEnrollment(ctx, e.db, model.ApplicationID(p.ID, req.ParticipantID))
	if err != nil {
		return Row{}, apperr.Classify(err)
	}
	c, err := e.ledger.Completeness(ctx, req.ParticipantID, p.ID, tl)
	if err != nil {
		return Row{}, err
	}
	return BuildRow(p, tl, enrollment, req, c), nil
}

// BuildRow assembles a row from its sources.
func BuildRow(p *model.Program, tl timeline.Timeline, e *model.Enrollment, req *model.CertificateRequest, c attendance.Completeness) Row {
	first, _ := tl.First()
	last, _ := tl.Last()
	return Row{
		SerialNumber:    req.SerialNumber,
		BatchCode:       req.BatchCode,
		RequestID:       req.ID,
		ParticipantID:   req.ParticipantID,
		ParticipantName: e.ParticipantName,
		ProgramTitle:    p.Title,
		Category:        p.Category,
		FirstDay:        first.String(),
		LastDay:         last.String(),
		Attended:        c.Attended,
		Total:           c.Total,
		ArtifactRef:     req.ArtifactRef,
	}
}
