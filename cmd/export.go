package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wheeltracker/transfer"
)

func newExportCmd() *cobra.Command {
	var sessions []string
	var all bool
	var formatName, out, stateFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a ledger as CSV, or sessions as JSON or YAML records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			format, err := transfer.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if all && len(sessions) > 0 {
				return fmt.Errorf("--all cannot be combined with --session")
			}
			if !all && len(sessions) == 0 {
				sessions = []string{sessionName("")}
			}
			if format == transfer.FormatCSV && len(sessions) != 1 {
				return fmt.Errorf("csv export takes exactly one session")
			}

			// Exporting never changes the state file
			a, err := openExportApp(cmd, stateFile)
			if err != nil {
				return err
			}
			defer a.close()

			// Encode fully before touching --out, so a failed export leaves no file behind
			var buf bytes.Buffer
			if format == transfer.FormatCSV {
				rows, err := a.tracker.GetLedger(ctx, sessions[0])
				if err != nil {
					return err
				}
				if err := transfer.WriteLedgerCSV(&buf, a.payouts, rows); err != nil {
					return err
				}
			} else {
				exported, err := a.tracker.ExportSessions(ctx, sessions)
				if err != nil {
					return err
				}
				if err := transfer.EncodeRecords(&buf, format, exported); err != nil {
					return err
				}
			}

			return writeOutput(cmd.OutOrStdout(), out, buf.Bytes())
		},
	}

	cmd.Flags().StringArrayVar(&sessions, "session", nil, "Session to export (repeatable, defaults to DEFAULT_SESSION)")
	cmd.Flags().BoolVar(&all, "all", false, "Export every stored session")
	cmd.Flags().StringVar(&formatName, "format", "json", "Output format: csv, json or yaml")
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to stdout)")
	cmd.Flags().StringVar(&stateFile, "file", "", "JSON or YAML state file used instead of the configured store")
	return cmd
}

func openExportApp(cmd *cobra.Command, stateFile string) (*app, error) {
	if stateFile == "" {
		return newApp(cmd.Context())
	}
	return openFileApp(cmd.Context(), stateFile, sessionName(""))
}

// writeOutput writes data to path, or to stdout when path is empty
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
