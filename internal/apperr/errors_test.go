package apperr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := AttendanceIncomplete(2, 3)
	assert.Equal(t, "attendance_incomplete: attended 2 of 3 sessions (attended=2, total=3)", err.Error())

	wrapped := Transient(driver.ErrBadConn)
	assert.Equal(t, "storage_unavailable: storage temporarily unavailable: driver: bad connection", wrapped.Error())
}

func TestReasonOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("approve: %w", SlotsExhausted("p1", 3))

	assert.Equal(t, ReasonSlotsExhausted, ReasonOf(err))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, ReasonSlotsExhausted))
	assert.False(t, IsRetryable(err))

	assert.Empty(t, ReasonOf(errors.New("plain")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"bad conn", driver.ErrBadConn, true},
		{"engine error untouched", NotFound(ReasonProgramNotFound, "missing"), false},
		{"other error untouched", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.retryable, IsRetryable(got))
			if !tt.retryable {
				assert.Equal(t, tt.err, got)
			}
		})
	}
	assert.NoError(t, Classify(nil))
}

func TestPermanentlyRejected_Details(t *testing.T) {
	err := PermanentlyRejected("r1", "duplicate identity")
	assert.Equal(t, "r1", err.Details["request_id"])
	assert.Equal(t, "duplicate identity", err.Details["rejection_reason"])

	assert.NotContains(t, PermanentlyRejected("r2", "").Details, "rejection_reason")
}
