package checkin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/training/internal/apperr"
	"github.com/kkkkikiki/training/internal/timeline"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		programID string
		day       string
		wantErr   bool
	}{
		{name: "simple", payload: "p1-2025-03-10", programID: "p1", day: "2025-03-10"},
		{name: "program id with dashes", payload: "prog-42-2025-03-10", programID: "prog-42", day: "2025-03-10"},
		{name: "uuid program id", payload: "9b2c1f0e-6a8d-4f3e-9a51-2c7e8d0b1a23-2024-02-29", programID: "9b2c1f0e-6a8d-4f3e-9a51-2c7e8d0b1a23", day: "2024-02-29"},
		{name: "empty", payload: "", wantErr: true},
		{name: "date only", payload: "2025-03-10", wantErr: true},
		{name: "empty program id", payload: "-2025-03-10", wantErr: true},
		{name: "short year", payload: "prog-25-03-10", wantErr: true},
		{name: "unpadded month", payload: "prog-2025-3-10", wantErr: true},
		{name: "unpadded day", payload: "prog-2025-03-1", wantErr: true},
		{name: "letter in day", payload: "prog-2025-03-1a", wantErr: true},
		{name: "non ascii digits", payload: "prog-２０２５-03-10", wantErr: true},
		{name: "month 13", payload: "prog-2025-13-01", wantErr: true},
		{name: "february 30", payload: "prog-2025-02-30", wantErr: true},
		{name: "not a leap year", payload: "prog-2025-02-29", wantErr: true},
		{name: "trailing dash", payload: "prog-2025-03-10-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := ParseCode(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.ReasonInvalidFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.programID, code.ProgramID)
			assert.Equal(t, tt.day, code.Day.String())
		})
	}
}

func TestEncodeCode_RoundTrip(t *testing.T) {
	day := timeline.MustParseDay("2025-01-05")
	payload := EncodeCode("prog-42", day)
	assert.Equal(t, "prog-42-2025-01-05", payload)

	code, err := ParseCode(payload)
	require.NoError(t, err)
	assert.Equal(t, Code{ProgramID: "prog-42", Day: day}, code)
	assert.Equal(t, payload, code.String())
}
