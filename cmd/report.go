package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wheeltracker/render"
)

func newReportCmd() *cobra.Command {
	var session, file string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the ledger and statistics of a session",
		Long: "Show the ledger, summary, top rounds, big-win gaps, segment drought and\n" +
			"bankroll alert of a stored session, or of a CSV, JSON or YAML file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			name := sessionName(session)

			var a *app
			if file != "" {
				bulk, err := readBulkFile(file)
				if err != nil {
					return err
				}

				a = newMemoryApp()
				if _, err := a.tracker.ImportBulk(ctx, name, bulk); err != nil {
					return err
				}
			} else {
				var err error
				a, err = newApp(ctx)
				if err != nil {
					return err
				}
			}
			defer a.close()

			report, err := a.tracker.GetReport(ctx, name)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Report(a.payouts, report))
			return err
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name (defaults to DEFAULT_SESSION)")
	cmd.Flags().StringVar(&file, "file", "", "Read rounds from a CSV, JSON or YAML file instead of the store")
	return cmd
}
