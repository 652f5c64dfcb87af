package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wheeltracker/config"
	"wheeltracker/database"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL session store schema",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Get()
			if err := setupLogging(cfg.LogLevel); err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}
			return nil
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return database.MigrateUp(config.Get().GetDatabaseURL())
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid steps %q: must be a positive integer", args[0])
				}
				steps = n
			}
			return database.MigrateDown(config.Get().GetDatabaseURL(), steps)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := database.GetMigrationStatus(config.Get().GetDatabaseURL())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !status.Applied {
				_, err = fmt.Fprintln(out, "No migrations applied")
				return err
			}
			_, err = fmt.Fprintf(out, "Version: %d\nDirty: %t\n", status.Version, status.Dirty)
			return err
		},
	})

	return migrateCmd
}
