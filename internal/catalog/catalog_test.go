package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/lifecycle"
	"github.com/kkkkikiki/training/internal/testutil"
	"github.com/kkkkikiki/training/internal/timeline"
)

func newCatalog(t *testing.T, clock *testutil.Clock) *Catalog {
	t.Helper()
	c := New(testutil.OpenDB(t), time.UTC)
	c.now = clock.Now
	return c
}

func TestCreate_SameDayRange(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	c := newCatalog(t, clock)

	view, err := c.Create(context.Background(), NewProgram{
		Title:    "One Day Workshop",
		Category: "Safety",
		Capacity: 20,
		Schedule: timeline.RawSchedule{Start: "2025-03-10", End: "2025-03-10"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, view.Program.ID)
	assert.Equal(t, []string{"2025-03-10"}, view.Timeline.Strings())
	assert.Equal(t, lifecycle.StatusUpcoming, view.Status)
	assert.True(t, view.AcceptsEnrollment)
	assert.Equal(t, 20, view.Program.SlotsRemaining)
}

func TestCreate_Validation(t *testing.T) {
	c := newCatalog(t, testutil.NewClock(time.Now()))

	tests := []struct {
		name   string
		in     NewProgram
		reason apperr.Reason
	}{
		{name: "no title", in: NewProgram{Capacity: 1}, reason: apperr.ReasonInvalidInput},
		{name: "negative capacity", in: NewProgram{Title: "T", Capacity: -1}, reason: apperr.ReasonInvalidInput},
		{name: "bad zone", in: NewProgram{Title: "T", TimeZone: "Mars/Olympus"}, reason: apperr.ReasonInvalidInput},
		{
			name:   "both representations",
			in:     NewProgram{Title: "T", Schedule: timeline.RawSchedule{Start: "2025-03-10", Days: []any{"2025-03-11"}}},
			reason: apperr.ReasonInvalidSchedule,
		},
		{
			name:   "end before start",
			in:     NewProgram{Title: "T", Schedule: timeline.RawSchedule{Start: "2025-03-10", End: "2025-03-09"}},
			reason: apperr.ReasonInvalidSchedule,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Create(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.reason, apperr.ReasonOf(err))
		})
	}
}

func TestGet_StatusFollowsClock(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC))
	c := newCatalog(t, clock)
	ctx := context.Background()

	created, err := c.Create(ctx, NewProgram{
		Title:    "Welding",
		TimeZone: "Asia/Manila",
		Capacity: 5,
		Schedule: timeline.RawSchedule{Days: []any{"2025-03-12", "2025-03-10", "2025-03-10"}},
	})
	require.NoError(t, err)
	id := created.Program.ID
	assert.Equal(t, []string{"2025-03-10", "2025-03-12"}, created.Timeline.Strings())

	steps := []struct {
		at   time.Time
		want lifecycle.Status
	}{
		{time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), lifecycle.StatusUpcoming},
		{time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), lifecycle.StatusOngoing},
		{time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), lifecycle.StatusUpcoming}, // between sessions
		{time.Date(2025, 3, 12, 15, 59, 0, 0, time.UTC), lifecycle.StatusOngoing},
		{time.Date(2025, 3, 12, 16, 0, 0, 0, time.UTC), lifecycle.StatusEnded},
	}
	for _, step := range steps {
		clock.Set(step.at)
		view, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, step.want, view.Status, step.at.String())
	}
}

func TestReschedule(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	c := newCatalog(t, clock)
	ctx := context.Background()

	created, err := c.Create(ctx, NewProgram{Title: "T", Capacity: 1, Schedule: timeline.RawSchedule{Start: "2025-03-10"}})
	require.NoError(t, err)

	view, err := c.Reschedule(ctx, created.Program.ID, timeline.RawSchedule{Start: "2025-04-01", End: "2025-04-03"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-01", "2025-04-02", "2025-04-03"}, view.Timeline.Strings())

	_, err = c.Reschedule(ctx, created.Program.ID, timeline.RawSchedule{Start: "2025-04-03", End: "2025-04-01"})
	assert.True(t, apperr.Is(err, apperr.ReasonInvalidSchedule))

	_, err = c.Get(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.ReasonProgramNotFound))
}

func TestCreate_ScheduleTooLong(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	c := newCatalog(t, clock).WithMaxScheduleDays(30)
	ctx := context.Background()

	tests := []struct {
		name     string
		schedule timeline.RawSchedule
	}{
		{name: "whole calendar range", schedule: timeline.RawSchedule{Start: "0001-01-01", End: "9999-12-31"}},
		{name: "range one day over", schedule: timeline.RawSchedule{Start: "2025-04-01", End: "2025-05-01"}},
		{name: "explicit list", schedule: timeline.RawSchedule{Days: []any{
			"2025-04-01", "2025-04-02", "2025-04-03", "2025-04-04", "2025-04-05", "2025-04-06", "2025-04-07", "2025-04-08",
			"2025-04-09", "2025-04-10", "2025-04-11", "2025-04-12", "2025-04-13", "2025-04-14", "2025-04-15", "2025-04-16",
			"2025-04-17", "2025-04-18", "2025-04-19", "2025-04-20", "2025-04-21", "2025-04-22", "2025-04-23", "2025-04-24",
			"2025-04-25", "2025-04-26", "2025-04-27", "2025-04-28", "2025-04-29", "2025-04-30", "2025-05-01",
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Create(ctx, NewProgram{Title: "T", Capacity: 1, Schedule: tt.schedule})
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.ReasonInvalidSchedule))
		})
	}

	view, err := c.Create(ctx, NewProgram{Title: "T", Capacity: 1, Schedule: timeline.RawSchedule{Start: "2025-04-01", End: "2025-04-30"}})
	require.NoError(t, err)
	assert.Equal(t, 30, view.Timeline.Len())

	_, err = c.Reschedule(ctx, view.Program.ID, timeline.RawSchedule{Start: "2025-04-01", End: "2026-04-01"})
	assert.True(t, apperr.Is(err, apperr.ReasonInvalidSchedule))

	got, err := c.Get(ctx, view.Program.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Timeline.Len())
}
