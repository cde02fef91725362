// Package catalog creates programs and serves them with their canonical
// timeline and derived status.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/lifecycle"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/repository"
	"github.com/kkkkikiki/training/internal/timeline"
)

// NewProgram describes a program to create.
type NewProgram struct {
	ID       string
	Title    string
	Category string
	TimeZone string
	Capacity int
	Schedule timeline.RawSchedule
}

// View is a program as seen at one instant.
type View struct {
	Program           *model.Program
	Timeline          timeline.Timeline
	Location          *time.Location
	Today             timeline.Day
	Status            lifecycle.Status
	AcceptsEnrollment bool
}

// Catalog manages programs
type Catalog struct {
	db       *sqlx.DB
	programs *repository.ProgramRepository
	loc      *time.Location
	maxDays  int
	now      func() time.Time
}

// New creates a catalog; loc is the zone for programs without their own.
func New(db *sqlx.DB, loc *time.Location) *Catalog {
	return &Catalog{
		db:       db,
		programs: repository.NewProgramRepository(),
		loc:      loc,
		maxDays:  timeline.DefaultMaxDays,
		now:      time.Now,
	}
}

// WithMaxScheduleDays sets how many days a created or rescheduled
// program may span. Zero or less removes the limit.
func (c *Catalog) WithMaxScheduleDays(n int) *Catalog {
	c.maxDays = n
	return c
}

// Create stores a program. The schedule is checked through the timeline
// adapter but stored as received.
func (c *Catalog) Create(ctx context.Context, in NewProgram) (*View, error) {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, apperr.FieldError{Field: "title", Error: "required"})
	}
	if in.Capacity < 0 {
		fields = append(fields, apperr.FieldError{Field: "capacity", Error: "must not be negative"})
	}
	if in.TimeZone != "" {
		if _, err := time.LoadLocation(in.TimeZone); err != nil {
			fields = append(fields, apperr.FieldError{Field: "time_zone", Error: "unknown time zone"})
		}
	}
	if len(fields) > 0 {
		return nil, apperr.InvalidFields(fields...)
	}

	program := &model.Program{
		ID:       in.ID,
		Title:    strings.TrimSpace(in.Title),
		Category: strings.TrimSpace(in.Category),
		TimeZone: in.TimeZone,
		Capacity: in.Capacity,
	}
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if err := program.SetRawSchedule(in.Schedule); err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidSchedule, "%v", err)
	}
	// Reject unusable schedules before they are stored.
	if err := c.checkSchedule(program); err != nil {
		return nil, err
	}

	if err := c.programs.CreateProgram(ctx, c.db, program); err != nil {
		return nil, apperr.Classify(err)
	}

	slog.Info("program created", "program_id", program.ID, "capacity", program.Capacity)
	return c.view(program)
}

// Get returns the program with a freshly derived timeline and status.
func (c *Catalog) Get(ctx context.Context, id string) (*View, error) {
	program, err := c.programs.GetProgram(ctx, c.db, id)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return c.view(program)
}

// Reschedule replaces the program's schedule. Timelines are derived on
// read, so the change is visible to the next call.
func (c *Catalog) Reschedule(ctx context.Context, id string, raw timeline.RawSchedule) (*View, error) {
	current, err := c.programs.GetProgram(ctx, c.db, id)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if err := current.SetRawSchedule(raw); err != nil {
		return nil, apperr.Validation(apperr.ReasonInvalidSchedule, "%v", err)
	}
	if err := c.checkSchedule(current); err != nil {
		return nil, err
	}
	if err := c.programs.UpdateSchedule(ctx, c.db, id, current.Schedule); err != nil {
		return nil, apperr.Classify(err)
	}
	return c.Get(ctx, id)
}

func (c *Catalog) checkSchedule(p *model.Program) error {
	s, _, err := p.DecodeSchedule(c.loc)
	if err != nil {
		return err
	}
	return timeline.CheckLength(s, c.maxDays)
}

func (c *Catalog) view(p *model.Program) (*View, error) {
	tl, loc, err := p.Timeline(c.loc)
	if err != nil {
		return nil, err
	}
	now := c.now()
	status := lifecycle.Classify(tl, now, p.SlotsRemaining, loc)
	return &View{
		Program:           p,
		Timeline:          tl,
		Location:          loc,
		Today:             timeline.DayOf(now, loc),
		Status:            status,
		AcceptsEnrollment: status.AcceptsEnrollment() && !tl.IsEmpty(),
	}, nil
}
