// Package cli implements trainingctl, the operator's command line for
// previewing schedules, producing and inspecting check-in codes and
// preparing the database.
package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string // "json" | "text"
	TimeZone string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for trainingctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "trainingctl",
		Short: "Operator tools for the training engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := opts.Location(); err != nil {
				return err
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.TimeZone, "tz", "UTC", "reference time zone for calendar days")

	cmd.AddCommand(NewTimelineCommand(opts))
	cmd.AddCommand(NewCodeCommand(opts))
	cmd.AddCommand(NewInspectCodeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// Location resolves the --tz flag.
func (o *RootOptions) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", o.TimeZone, err)
	}
	return loc, nil
}

// parseNow reads an RFC 3339 --now flag; empty means the current time.
func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: want RFC 3339", s)
	}
	return t, nil
}
