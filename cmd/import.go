package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var session, file, stateFile string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge rounds from a CSV, JSON or YAML file into the store",
		Long: "A CSV table or a bare record list replaces the target session.\n" +
			"A session map merges session by session, overwriting name collisions.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bulk, err := readBulkFile(file)
			if err != nil {
				return err
			}

			warnIfEphemeral(stateFile)

			name := sessionName(session)
			return withApp(cmd.Context(), stateFile, name, func(a *app) error {
				records, err := a.tracker.ImportBulk(cmd.Context(), name, bulk)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Session %s now has %d rounds\n", name, len(records))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Target session for tables and bare lists (defaults to DEFAULT_SESSION)")
	cmd.Flags().StringVar(&file, "from", "", "File to import")
	cmd.Flags().StringVar(&stateFile, "file", "", "JSON or YAML state file used instead of the configured store")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
