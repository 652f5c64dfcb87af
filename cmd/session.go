package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wheeltracker/render"
)

func newSessionCmd() *cobra.Command {
	var stateFile string

	sessionCmd := &cobra.Command{Use: "session", Short: "Manage named sessions"}
	sessionCmd.PersistentFlags().StringVar(&stateFile, "file", "", "JSON or YAML state file used instead of the configured store")

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), stateFile, sessionName(""), func(a *app) error {
				infos, err := a.tracker.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Sessions(infos))
				return err
			})
		},
	})

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnIfEphemeral(stateFile)
			return withApp(cmd.Context(), stateFile, sessionName(""), func(a *app) error {
				if err := a.tracker.DeleteSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
				return err
			})
		},
	})

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "delete-all",
		Short: "Delete every session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			warnIfEphemeral(stateFile)
			return withApp(cmd.Context(), stateFile, sessionName(""), func(a *app) error {
				if err := a.tracker.DeleteAllSessions(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Deleted all sessions")
				return err
			})
		},
	})

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "copy SRC DST",
		Short: "Snapshot a session under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnIfEphemeral(stateFile)
			return withApp(cmd.Context(), stateFile, sessionName(""), func(a *app) error {
				if err := a.tracker.CopySession(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Copied session %s to %s\n", args[0], args[1])
				return err
			})
		},
	})

	return sessionCmd
}
