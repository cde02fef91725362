package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/kkkkikiki/training/internal/apperr"
)

func TestCoerceDay_Encodings(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	// 2025-03-10 17:00:00 UTC == 2025-03-11 01:00 in Manila.
	const epoch = 1741626000

	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "date string", in: "2025-03-10", want: "2025-03-10"},
		{name: "rfc3339", in: "2025-03-10T17:00:00Z", want: "2025-03-11"},
		{name: "epoch float", in: float64(epoch), want: "2025-03-11"},
		{name: "epoch int64", in: int64(epoch), want: "2025-03-11"},
		{name: "epoch string", in: "1741626000", want: "2025-03-11"},
		{name: "json number", in: json.Number("1741626000"), want: "2025-03-11"},
		{name: "seconds object", in: map[string]any{"seconds": float64(epoch), "nanos": float64(0)}, want: "2025-03-11"},
		{name: "underscore seconds object", in: map[string]any{"_seconds": float64(epoch), "_nanoseconds": float64(5)}, want: "2025-03-11"},
		{name: "timestamppb", in: timestamppb.New(time.Unix(epoch, 0)), want: "2025-03-11"},
		{name: "midnight utc time is a date", in: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), want: "2025-03-10"},
		{name: "instant time", in: time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC), want: "2025-03-11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := CoerceDay(tt.in, manila)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestCoerceDay_Rejects(t *testing.T) {
	for _, in := range []any{nil, "", "next tuesday", "2025-13-01", map[string]any{"nanos": 1.0}, true, float64(-5)} {
		_, err := CoerceDay(in, time.UTC)
		assert.Error(t, err, "%v", in)
	}
}

func TestDecodeSchedule_Range(t *testing.T) {
	s, err := DecodeSchedule(RawSchedule{Start: "2025-04-01", End: map[string]any{"seconds": float64(1744243200)}}, time.UTC)
	require.NoError(t, err)

	start, end, ok := s.Range()
	require.True(t, ok)
	assert.Equal(t, "2025-04-01", start.String())
	assert.Equal(t, "2025-04-10", end.String())
}

func TestDecodeSchedule_MissingEndIsSingleDay(t *testing.T) {
	s, err := DecodeSchedule(RawSchedule{Start: "2025-04-01"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-01"}, Normalize(s).Strings())
}

func TestDecodeSchedule_RangeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  RawSchedule
	}{
		{name: "both representations", raw: RawSchedule{Start: "2025-04-01", End: "2025-04-02", Days: []any{"2025-04-01"}}},
		{name: "end without start", raw: RawSchedule{End: "2025-04-02"}},
		{name: "bad start", raw: RawSchedule{Start: "soon", End: "2025-04-02"}},
		{name: "bad end", raw: RawSchedule{Start: "2025-04-01", End: "later"}},
		{name: "inverted", raw: RawSchedule{Start: "2025-04-05", End: "2025-04-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSchedule(tt.raw, time.UTC)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.ReasonInvalidSchedule))
		})
	}
}

func TestDecodeSchedule_ExplicitDropsInvalid(t *testing.T) {
	s, err := DecodeSchedule(RawSchedule{Days: []any{"2025-05-02", "garbage", nil, "2025-05-01", "2025-02-30", "2025-05-02"}}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, ModeExplicit, s.Mode())
	assert.Equal(t, []string{"2025-05-01", "2025-05-02"}, Normalize(s).Strings())
}

func TestDecodeSchedule_AllInvalidIsEmptyTimeline(t *testing.T) {
	s, err := DecodeSchedule(RawSchedule{Days: []any{"x", "y"}}, time.UTC)
	require.NoError(t, err)
	assert.True(t, Normalize(s).IsEmpty())
}

func TestDecodeSchedule_Empty(t *testing.T) {
	s, err := DecodeSchedule(RawSchedule{}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, ModeNone, s.Mode())
	assert.True(t, Normalize(s).IsEmpty())
}

func TestSchedule_RawRoundTrip(t *testing.T) {
	s, err := RangeSchedule(MustParseDay("2025-04-01"), MustParseDay("2025-04-03"))
	require.NoError(t, err)

	back, err := DecodeSchedule(s.Raw(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, Normalize(s).Strings(), Normalize(back).Strings())

	e := ExplicitSchedule([]Day{MustParseDay("2025-04-09"), MustParseDay("2025-04-07")})
	back, err = DecodeSchedule(e.Raw(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-07", "2025-04-09"}, Normalize(back).Strings())
}

func TestCheckLength(t *testing.T) {
	huge, err := DecodeSchedule(RawSchedule{Start: "0001-01-01", End: "9999-12-31"}, time.UTC)
	require.NoError(t, err)
	year, err := DecodeSchedule(RawSchedule{Start: "2024-01-01", End: "2024-12-31"}, time.UTC)
	require.NoError(t, err)

	listed := make([]any, 0, 400)
	for i := 0; i < 400; i++ {
		listed = append(listed, MustParseDay("2025-01-01").AddDays(i).String())
	}
	long, err := DecodeSchedule(RawSchedule{Days: listed}, time.UTC)
	require.NoError(t, err)
	repeated, err := DecodeSchedule(RawSchedule{Days: []any{"2025-01-01", "2025-01-01", "2025-01-02"}}, time.UTC)
	require.NoError(t, err)

	tests := []struct {
		name    string
		s       Schedule
		maxDays int
		wantErr bool
	}{
		{name: "whole calendar", s: huge, maxDays: DefaultMaxDays, wantErr: true},
		{name: "leap year fits", s: year, maxDays: DefaultMaxDays},
		{name: "leap year one over", s: year, maxDays: 365, wantErr: true},
		{name: "long explicit list", s: long, maxDays: DefaultMaxDays, wantErr: true},
		{name: "duplicates count once", s: repeated, maxDays: 2},
		{name: "empty", s: EmptySchedule(), maxDays: 1},
		{name: "disabled", s: huge, maxDays: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLength(tt.s, tt.maxDays)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.ReasonInvalidSchedule))
			e, _ := apperr.As(err)
			assert.Equal(t, tt.maxDays, e.Details["max_days"])
		})
	}
}

func TestSchedule_Len(t *testing.T) {
	s, err := RangeSchedule(MustParseDay("2025-02-27"), MustParseDay("2025-03-02"))
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, Normalize(s).Len(), s.Len())

	assert.Equal(t, 3652059, MustParseDay("0001-01-01").DaysUntil(MustParseDay("9999-12-31"))+1)
	assert.Equal(t, -1, MustParseDay("2025-03-01").DaysUntil(MustParseDay("2025-02-28")))
}
