package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kkkkikiki/training/internal/lifecycle"
	"github.com/kkkkikiki/training/internal/timeline"
)

// ProgramFile is a program definition as operators keep it on disk.
type ProgramFile struct {
	Title    string               `yaml:"title"`
	Category string               `yaml:"category"`
	TimeZone string               `yaml:"time_zone"`
	Schedule timeline.RawSchedule `yaml:"schedule"`
}

// LoadProgramFile reads a YAML program definition.
func LoadProgramFile(path string) (*ProgramFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var pf ProgramFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &pf, nil
}

// TimelineReport is the canonical view of a program file.
type TimelineReport struct {
	Title    string   `json:"title"`
	TimeZone string   `json:"time_zone"`
	Mode     string   `json:"schedule_mode"`
	Days     []string `json:"days"`
	Today    string   `json:"today"`
	Status   string   `json:"status"`
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	var file, now string
	var maxDays int

	cmd := &cobra.Command{
		Use:   "timeline --file program.yaml",
		Short: "Show the canonical timeline and status of a program file",
		Long: `Normalize the schedule of a YAML program file into its canonical
list of calendar days and classify it at --now (default: the current time).
Days are evaluated in the file's time_zone, falling back to --tz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(rootOpts, file, now, maxDays, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "program definition (YAML)")
	cmd.Flags().StringVar(&now, "now", "", "instant to classify at (RFC 3339)")
	cmd.Flags().IntVar(&maxDays, "max-days", timeline.DefaultMaxDays, "most days the schedule may cover")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runTimeline(opts *RootOptions, file, nowFlag string, maxDays int, w io.Writer) error {
	pf, err := LoadProgramFile(file)
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
	if pf.TimeZone != "" {
		if loc, err = time.LoadLocation(pf.TimeZone); err != nil {
			return fmt.Errorf("%s: invalid time_zone %q: %w", file, pf.TimeZone, err)
		}
	}

	schedule, err := timeline.DecodeSchedule(pf.Schedule, loc)
	if err != nil {
		return err
	}
	if err := timeline.CheckLength(schedule, maxDays); err != nil {
		return err
	}
	tl := timeline.Normalize(schedule)
	today := timeline.DayOf(now, loc)

	report := TimelineReport{
		Title:    pf.Title,
		TimeZone: loc.String(),
		Mode:     string(tl.Mode()),
		Days:     tl.Strings(),
		Today:    today.String(),
		Status:   string(lifecycle.ClassifyDates(tl, today)),
	}

	return write(opts, w, report, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%s)\n", report.Title, report.TimeZone)
		if tl.IsEmpty() {
			fmt.Fprintln(w, "no valid days")
		} else {
			first, _ := tl.First()
			last, _ := tl.Last()
			fmt.Fprintf(w, "%d day(s), %s mode: %s .. %s\n", tl.Len(), report.Mode, first, last)
			for _, d := range report.Days {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
		fmt.Fprintf(w, "status on %s: %s\n", report.Today, report.Status)
	})
}
