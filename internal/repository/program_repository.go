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

// ProgramRepository handles program data operations
type ProgramRepository struct{}

// NewProgramRepository creates a new program repository
func NewProgramRepository() *ProgramRepository {
	return &ProgramRepository{}
}

// CreateProgram inserts a new program with all of its capacity available.
func (r *ProgramRepository) CreateProgram(ctx context.Context, db DBExecutor, program *model.Program) error {
	query := `
		INSERT INTO programs (id, title, category, time_zone, schedule, capacity, slots_remaining, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	program.SlotsRemaining = program.Capacity

	_, err := db.ExecContext(ctx, db.Rebind(query),
		program.ID, program.Title, program.Category, program.TimeZone, program.Schedule,
		program.Capacity, program.SlotsRemaining, program.CreatedAt, program.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}

	return nil
}

// GetProgram retrieves a program by ID
func (r *ProgramRepository) GetProgram(ctx context.Context, db DBExecutor, id string) (*model.Program, error) {
	query := `
		SELECT id, title, category, time_zone, schedule, capacity, slots_remaining, created_at, updated_at
		FROM programs
		WHERE id = ?
	`

	var program model.Program
	err := db.GetContext(ctx, &program, db.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.ReasonProgramNotFound, "program %s not found", id)
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}

	return &program, nil
}

// GetPrograms retrieves several programs by ID; missing IDs are skipped.
func (r *ProgramRepository) GetPrograms(ctx context.Context, db DBExecutor, ids []string) ([]model.Program, error) {
	programs := make([]model.Program, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetProgram(ctx, db, id)
		if err != nil {
			if apperr.Is(err, apperr.ReasonProgramNotFound) {
				continue
			}
			return nil, err
		}
		programs = append(programs, *p)
	}
	return programs, nil
}

// UpdateSchedule replaces a program's raw schedule record.
func (r *ProgramRepository) UpdateSchedule(ctx context.Context, db DBExecutor, id, schedule string) error {
	query := `UPDATE programs SET schedule = ?, updated_at = ? WHERE id = ?`

	updated, err := execAffected(ctx, db, query, schedule, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if !updated {
		return apperr.NotFound(apperr.ReasonProgramNotFound, "program %s not found", id)
	}
	return nil
}

// ConsumeSlot decrements slots_remaining if, and only if, a slot is left.
// The check and the decrement are one statement, so concurrent callers
// can never take the count below zero.
func (r *ProgramRepository) ConsumeSlot(ctx context.Context, db DBExecutor, id string) (bool, error) {
	query := `
		UPDATE programs
		SET slots_remaining = slots_remaining - 1, updated_at = ?
		WHERE id = ? AND slots_remaining > 0
	`

	consumed, err := execAffected(ctx, db, query, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to consume slot: %w", err)
	}
	return consumed, nil
}
