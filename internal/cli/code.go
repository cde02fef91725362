package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kkkkikiki/training/internal/checkin"
	"github.com/kkkkikiki/training/internal/timeline"
)

// CodeReport describes a check-in payload.
type CodeReport struct {
	ProgramID string `json:"program_id"`
	Day       string `json:"day"`
	Payload   string `json:"payload"`
	Validity  string `json:"validity,omitempty"` // "current" | "stale" | "future"
}

// NewCodeCommand creates the code command.
func NewCodeCommand(rootOpts *RootOptions) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "code <program-id>",
		Short: "Print the check-in payload for a program day",
		Long: `Print the payload to encode in the QR code shown at a session.
The day defaults to today in --tz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCode(rootOpts, args[0], day, time.Now(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "session day (YYYY-MM-DD)")

	return cmd
}

func runCode(opts *RootOptions, programID, dayFlag string, now time.Time, w io.Writer) error {
	loc, err := opts.Location()
	if err != nil {
		return err
	}

	day := timeline.DayOf(now, loc)
	if dayFlag != "" {
		if day, err = timeline.ParseDay(dayFlag); err != nil {
			return err
		}
	}

	payload := checkin.EncodeCode(programID, day)
	// reject ids the scanner could not read back
	if _, err := checkin.ParseCode(payload); err != nil {
		return err
	}

	report := CodeReport{ProgramID: programID, Day: day.String(), Payload: payload}
	return write(opts, w, report, func(w io.Writer) {
		fmt.Fprintln(w, payload)
	})
}

// NewInspectCodeCommand creates the inspect-code command.
func NewInspectCodeCommand(rootOpts *RootOptions) *cobra.Command {
	var now string

	cmd := &cobra.Command{
		Use:   "inspect-code <payload>",
		Short: "Decode a scanned check-in payload",
		Long: `Decode a check-in payload and report whether it is valid at --now
(default: the current time) in --tz. Enrollment is not checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspectCode(rootOpts, args[0], now, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&now, "now", "", "instant to check against (RFC 3339)")

	return cmd
}

func runInspectCode(opts *RootOptions, payload, nowFlag string, w io.Writer) error {
	code, err := checkin.ParseCode(payload)
	if err != nil {
		return err
	}
	now, err := parseNow(nowFlag)
	if err != nil {
		return err
	}
	loc, err := opts.Location()
	if err != nil {
		return err
	}

	today := timeline.DayOf(now, loc)
	validity := "current"
	switch {
	case code.Day.Before(today):
		validity = "stale"
	case code.Day.After(today):
		validity = "future"
	}

	report := CodeReport{ProgramID: code.ProgramID, Day: code.Day.String(), Payload: payload, Validity: validity}
	return write(opts, w, report, func(w io.Writer) {
		fmt.Fprintf(w, "program: %s\n", report.ProgramID)
		fmt.Fprintf(w, "day:     %s (%s, today is %s)\n", report.Day, validity, today)
	})
}
