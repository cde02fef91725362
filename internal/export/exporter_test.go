package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/training/internal/attendance"
	"github.com/kkkkikiki/training/internal/certificate"
	"github.com/kkkkikiki/training/internal/model"
	"github.com/kkkkikiki/training/internal/testutil"
	"github.com/kkkkikiki/training/internal/timeline"
)

type recordingRenderer struct {
	batches []*Batch
	err     error
}

func (r *recordingRenderer) Render(_ context.Context, b *Batch) error {
	r.batches = append(r.batches, b)
	return r.err
}

// seed prepares p1 with two approved, fully attended participants whose
// certificates are approved.
func seed(t *testing.T) (*sqlx.DB, *attendance.Ledger) {
	t.Helper()
	ctx := context.Background()
	db := testutil.OpenDB(t)
	testutil.SeedProgramRaw(t, db,
		model.Program{ID: "p1", Title: "Go Basics", Category: "Computer Science", Capacity: 5},
		timeline.RawSchedule{Start: "2025-03-10", End: "2025-03-12"})
	testutil.SeedEnrollment(t, db, "p1", "u1", "Juan Dela Cruz", model.EnrollmentApproved)
	testutil.SeedEnrollment(t, db, "p1", "u2", "Ana Santos", model.EnrollmentApproved)

	ledger := attendance.NewLedger(db)
	workflow := certificate.NewWorkflow(db, ledger, time.UTC)
	for _, u := range []string{"u1", "u2"} {
		for _, d := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
			_, err := ledger.MarkPresent(ctx, u, "p1", timeline.MustParseDay(d))
			require.NoError(t, err)
		}
		out, err := workflow.Request(ctx, u, "p1")
		require.NoError(t, err)
		_, err = workflow.Approve(ctx, out.Request.ID, "artifact://"+u)
		require.NoError(t, err)
	}
	return db, ledger
}

func newExporter(db *sqlx.DB, ledger *attendance.Ledger, r Renderer) *Exporter {
	e := NewExporter(db, ledger, r, time.UTC)
	e.now = testutil.NewClock(time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)).Now
	e.rand = bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	return e
}

func TestExport_Golden(t *testing.T) {
	db, ledger := seed(t)
	renderer := &recordingRenderer{}
	e := newExporter(db, ledger, renderer)

	batch, err := e.Export(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, renderer.batches, 1)
	assert.Equal(t, "B20250320-GB-ABCD", batch.Code)

	// Request ids are random.
	for i := range batch.Rows {
		assert.NotEmpty(t, batch.Rows[i].RequestID)
		batch.Rows[i].RequestID = "REQUEST_ID"
	}
	got, err := json.MarshalIndent(batch, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "batch", got)
}

func TestExport_OnlyOnce(t *testing.T) {
	db, ledger := seed(t)
	e := newExporter(db, ledger, nil)
	ctx := context.Background()

	first, err := e.Export(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, first.Rows, 2)

	second, err := e.Export(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, second.Code)
	assert.Empty(t, second.Rows)
}

func TestExport_RendererFailureKeepsBatch(t *testing.T) {
	db, ledger := seed(t)
	renderer := &recordingRenderer{err: errors.New("renderer down")}
	e := newExporter(db, ledger, renderer)

	batch, err := e.Export(context.Background(), "p1")
	require.Error(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, "B20250320-GB-ABCD", batch.Code)
	assert.Len(t, batch.Rows, 2)
}
