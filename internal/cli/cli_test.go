package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/training/internal/apperr"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeProgram(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"timeline", "code", "inspect-code", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCommand_RejectsBadFlags(t *testing.T) {
	_, err := execute(t, "code", "p1", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")

	_, err = execute(t, "code", "p1", "--tz", "Mars/Olympus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time zone")
}

func TestTimeline_Range(t *testing.T) {
	path := writeProgram(t, `
title: Solar Installer Basics
time_zone: Asia/Manila
schedule:
  start: 2025-03-10
  end: 2025-03-12
`)

	// 01:00 on 2025-03-11 in Manila
	out, err := execute(t, "timeline", "--file", path, "--now", "2025-03-10T17:00:00Z", "--format", "json")
	require.NoError(t, err)

	var report TimelineReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Asia/Manila", report.TimeZone)
	assert.Equal(t, "range", report.Mode)
	assert.Equal(t, []string{"2025-03-10", "2025-03-11", "2025-03-12"}, report.Days)
	assert.Equal(t, "2025-03-11", report.Today)
	assert.Equal(t, "ongoing", report.Status)
}

func TestTimeline_ExplicitText(t *testing.T) {
	path := writeProgram(t, `
title: Welding NC II
schedule:
  days: [2025-03-12, 2025-03-10, garbage, 2025-03-10]
`)

	out, err := execute(t, "timeline", "-f", path, "--now", "2025-03-11T02:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, out, "Welding NC II (UTC)")
	assert.Contains(t, out, "2 day(s), explicit mode: 2025-03-10 .. 2025-03-12")
	assert.Contains(t, out, "status on 2025-03-11: upcoming")
}

func TestTimeline_BothRepresentations(t *testing.T) {
	path := writeProgram(t, `
title: Broken
schedule:
  start: 2025-03-10
  days: [2025-03-11]
`)

	_, err := execute(t, "timeline", "--file", path)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonInvalidSchedule, apperr.ReasonOf(err))
}

func TestTimeline_TooManyDays(t *testing.T) {
	path := writeProgram(t, `
title: Endless
schedule:
  start: 0001-01-01
  end: 9999-12-31
`)

	_, err := execute(t, "timeline", "--file", path)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonInvalidSchedule, apperr.ReasonOf(err))

	path = writeProgram(t, `
title: Fortnight
schedule:
  start: 2025-03-01
  end: 2025-03-14
`)
	_, err = execute(t, "timeline", "--file", path, "--max-days", "7")
	assert.Equal(t, apperr.ReasonInvalidSchedule, apperr.ReasonOf(err))
}

func TestTimeline_MissingFile(t *testing.T) {
	_, err := execute(t, "timeline", "--file", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestCode(t *testing.T) {
	out, err := execute(t, "code", "prog-42", "--day", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "prog-42-2025-03-10\n", out)
}

func TestCode_DefaultsToToday(t *testing.T) {
	before := time.Now().UTC().Format(time.DateOnly)
	out, err := execute(t, "code", "prog-42", "--format", "json")
	require.NoError(t, err)
	after := time.Now().UTC().Format(time.DateOnly)

	var report CodeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, strings.HasPrefix(report.Payload, "prog-42-"))
	assert.Contains(t, []string{before, after}, report.Day)
}

func TestCode_BadDay(t *testing.T) {
	_, err := execute(t, "code", "prog-42", "--day", "2025-02-30")
	require.Error(t, err)
}

func TestInspectCode(t *testing.T) {
	tests := []struct {
		name     string
		now      string
		validity string
	}{
		{"same local day", "2025-03-10T08:00:00Z", "current"},
		{"after local midnight", "2025-03-10T16:30:00Z", "stale"},
		{"day before", "2025-03-09T10:00:00Z", "future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "inspect-code", "prog-42-2025-03-10", "--tz", "Asia/Manila", "--now", tt.now, "--format", "json")
			require.NoError(t, err)

			var report CodeReport
			require.NoError(t, json.Unmarshal([]byte(out), &report))
			assert.Equal(t, "prog-42", report.ProgramID)
			assert.Equal(t, "2025-03-10", report.Day)
			assert.Equal(t, tt.validity, report.Validity)
		})
	}
}

func TestInspectCode_Invalid(t *testing.T) {
	_, err := execute(t, "inspect-code", "prog-42-2025-3-10")
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonInvalidFormat, apperr.ReasonOf(err))
}

func TestMigrate_SQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "training.db"))

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema applied (sqlite3)\n", out)

	// idempotent
	_, err = execute(t, "migrate")
	require.NoError(t, err)
}
