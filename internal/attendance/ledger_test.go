package attendance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/training/internal/attendance"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/testutil"
	"github.com/kkkkikiki/training/internal/timeline"
)

func days(ss ...string) []timeline.Day {
	out := make([]timeline.Day, len(ss))
	for i, s := range ss {
		out[i] = timeline.MustParseDay(s)
	}
	return out
}

func setup(t *testing.T) *attendance.Ledger {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedProgram(t, db, model.Program{ID: "p1", Title: "T", Capacity: 5}, "2025-03-10", "2025-03-11", "2025-03-12")
	return attendance.NewLedger(db)
}

func TestMarkPresent_Idempotent(t *testing.T) {
	ledger := setup(t)
	ctx := context.Background()
	day := timeline.MustParseDay("2025-03-10")

	out, err := ledger.MarkPresent(ctx, "u1", "p1", day)
	require.NoError(t, err)
	assert.Equal(t, attendance.Inserted, out)

	out, err = ledger.MarkPresent(ctx, "u1", "p1", day)
	require.NoError(t, err)
	assert.Equal(t, attendance.AlreadyPresent, out)

	tl := timeline.Of(timeline.ModeExplicit, days("2025-03-10", "2025-03-11", "2025-03-12")...)
	c, err := ledger.Completeness(ctx, "u1", "p1", tl)
	require.NoError(t, err)
	assert.Equal(t, attendance.Completeness{Attended: 1, Total: 3}, c)
}

func TestMarkPresent_UpgradesAbsence(t *testing.T) {
	ledger := setup(t)
	ctx := context.Background()
	day := timeline.MustParseDay("2025-03-10")

	written, err := ledger.RecordAbsence(ctx, "u1", "p1", day)
	require.NoError(t, err)
	assert.True(t, written)

	present, err := ledger.IsPresent(ctx, "u1", "p1", day)
	require.NoError(t, err)
	assert.False(t, present)

	out, err := ledger.MarkPresent(ctx, "u1", "p1", day)
	require.NoError(t, err)
	assert.Equal(t, attendance.Inserted, out)

	present, err = ledger.IsPresent(ctx, "u1", "p1", day)
	require.NoError(t, err)
	assert.True(t, present)

	// An absence never overwrites a present line.
	written, err = ledger.RecordAbsence(ctx, "u1", "p1", day)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestMarkPresent_ConcurrentScansYieldOneEntry(t *testing.T) {
	ledger := setup(t)
	ctx := context.Background()
	day := timeline.MustParseDay("2025-03-11")

	const n = 16
	outcomes := make([]attendance.Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := ledger.MarkPresent(ctx, "u1", "p1", day)
			assert.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	inserted := 0
	for _, o := range outcomes {
		if o == attendance.Inserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)
}

func TestTally(t *testing.T) {
	tl := timeline.Of(timeline.ModeExplicit, days("2025-03-10", "2025-03-11", "2025-03-12")...)
	entry := func(day string, r model.Remark) model.AttendanceEntry {
		return model.AttendanceEntry{Day: timeline.MustParseDay(day), Remark: r}
	}

	tests := []struct {
		name    string
		tl      timeline.Timeline
		entries []model.AttendanceEntry
		want    attendance.Completeness
	}{
		{
			name: "no entries",
			tl:   tl,
			want: attendance.Completeness{Attended: 0, Total: 3},
		},
		{
			name: "two of three",
			tl:   tl,
			entries: []model.AttendanceEntry{
				entry("2025-03-10", model.RemarkPresent),
				entry("2025-03-11", model.RemarkPresent),
				entry("2025-03-12", model.RemarkAbsent),
			},
			want: attendance.Completeness{Attended: 2, Total: 3},
		},
		{
			name: "complete",
			tl:   tl,
			entries: []model.AttendanceEntry{
				entry("2025-03-10", model.RemarkPresent),
				entry("2025-03-11", model.RemarkPresent),
				entry("2025-03-12", model.RemarkPresent),
			},
			want: attendance.Completeness{Attended: 3, Total: 3, Complete: true},
		},
		{
			name: "days off the timeline are ignored",
			tl:   tl,
			entries: []model.AttendanceEntry{
				entry("2025-03-10", model.RemarkPresent),
				entry("2025-03-20", model.RemarkPresent),
				entry("2025-03-21", model.RemarkPresent),
				entry("2025-03-22", model.RemarkPresent),
			},
			want: attendance.Completeness{Attended: 1, Total: 3},
		},
		{
			name: "empty timeline is never complete",
			tl:   timeline.Timeline{},
			want: attendance.Completeness{Attended: 0, Total: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := attendance.Tally(tt.entries, tt.tl)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.Attended, got.Total)
		})
	}
}

func TestSheet(t *testing.T) {
	ledger := setup(t)
	ctx := context.Background()
	tl := timeline.Of(timeline.ModeExplicit, days("2025-03-10", "2025-03-11", "2025-03-12")...)

	_, err := ledger.MarkPresent(ctx, "u1", "p1", timeline.MustParseDay("2025-03-11"))
	require.NoError(t, err)

	rows, err := ledger.Sheet(ctx, "u1", "p1", tl, timeline.MustParseDay("2025-03-12"))
	require.NoError(t, err)
	assert.Equal(t, []attendance.SheetRow{
		{Day: timeline.MustParseDay("2025-03-10"), Mark: attendance.MarkAbsent},
		{Day: timeline.MustParseDay("2025-03-11"), Mark: attendance.MarkPresent},
		{Day: timeline.MustParseDay("2025-03-12"), Mark: attendance.MarkScheduled},
	}, rows)
}
