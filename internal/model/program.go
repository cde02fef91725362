package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kkkkikiki/training/internal/timeline"
)

// Program represents a training program in the database.
// Lifecycle status is deliberately absent: it is derived on every read.
type Program struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Category       string    `db:"category" json:"category"`
	TimeZone       string    `db:"time_zone" json:"time_zone"`
	Schedule       string    `db:"schedule" json:"-"` // raw schedule record, JSON
	Capacity       int       `db:"capacity" json:"capacity"`
	SlotsRemaining int       `db:"slots_remaining" json:"slots_remaining"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Location returns the program's time zone, or fallback when unset.
func (p *Program) Location(fallback *time.Location) (*time.Location, error) {
	if p.TimeZone == "" {
		if fallback == nil {
			return time.UTC, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("program %s: load time zone: %w", p.ID, err)
	}
	return loc, nil
}

// RawSchedule decodes the stored schedule record.
func (p *Program) RawSchedule() (timeline.RawSchedule, error) {
	var raw timeline.RawSchedule
	if p.Schedule == "" {
		return raw, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(p.Schedule)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return raw, fmt.Errorf("program %s: decode schedule: %w", p.ID, err)
	}
	return raw, nil
}

// SetRawSchedule stores a schedule record as received.
func (p *Program) SetRawSchedule(raw timeline.RawSchedule) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	p.Schedule = string(b)
	return nil
}

// DecodeSchedule parses the stored schedule record in the program's zone.
func (p *Program) DecodeSchedule(fallback *time.Location) (timeline.Schedule, *time.Location, error) {
	loc, err := p.Location(fallback)
	if err != nil {
		return timeline.Schedule{}, nil, err
	}
	raw, err := p.RawSchedule()
	if err != nil {
		return timeline.Schedule{}, nil, err
	}
	s, err := timeline.DecodeSchedule(raw, loc)
	if err != nil {
		return timeline.Schedule{}, nil, err
	}
	return s, loc, nil
}

// Timeline normalizes the program's current schedule. It is recomputed on
// every call so schedule edits are never served stale.
func (p *Program) Timeline(fallback *time.Location) (timeline.Timeline, *time.Location, error) {
	s, loc, err := p.DecodeSchedule(fallback)
	if err != nil {
		return timeline.Timeline{}, nil, err
	}
	return timeline.Normalize(s), loc, nil
}
