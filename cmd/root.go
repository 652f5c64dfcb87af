package cmd

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wheeltracker/config"
)

// Execute runs the wheeltracker command tree
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wheeltracker",
		Short:         "Wheel game bankroll ledger and statistics tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(config.Get().LogLevel)
		},
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newRoundCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newSessionCmd())
	return root
}

// setupLogging sends logs to stderr so stdout stays reserved for command output
func setupLogging(level string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(parsed)
	return nil
}

// sessionName falls back to the configured default session
func sessionName(flag string) string {
	if flag != "" {
		return flag
	}
	return config.Get().DefaultSession
}
