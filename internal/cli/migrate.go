package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kkkkikiki/training/internal/config"
	"github.com/kkkkikiki/training/internal/database"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		Long:  "Apply the schema to the database configured by the DB_* environment variables. Safe to re-run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			db, err := database.NewDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}

			report := map[string]string{"driver": db.Driver, "status": "migrated"}
			return write(rootOpts, cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprintf(w, "schema applied (%s)\n", db.Driver)
			})
		},
	}

	return cmd
}
