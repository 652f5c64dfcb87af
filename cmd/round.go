package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"wheeltracker/models"
	"wheeltracker/render"
)

func newRoundCmd() *cobra.Command {
	roundCmd := &cobra.Command{Use: "round", Short: "Record or remove rounds"}
	roundCmd.AddCommand(newRoundAddCmd())
	roundCmd.AddCommand(newRoundDeleteCmd())
	return roundCmd
}

func newRoundAddCmd() *cobra.Command {
	var session, result, multiplier, at, stateFile string
	var stakes []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a round to a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, err := parseRound(result, multiplier, at, stakes, time.Now)
			if err != nil {
				return err
			}

			warnIfEphemeral(stateFile)

			name := sessionName(session)
			return withApp(cmd.Context(), stateFile, name, func(a *app) error {
				row, err := a.tracker.AddRound(cmd.Context(), name, record)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), render.Ledger([]models.EnrichedRow{*row}))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name (defaults to DEFAULT_SESSION)")
	cmd.Flags().StringVar(&result, "result", "", "Winning segment, e.g. 5 or CrazyTime")
	cmd.Flags().StringVar(&multiplier, "multiplier", "1", "Extra multiplier applied to the base payout")
	cmd.Flags().StringArrayVar(&stakes, "stake", nil, "Stake as segment=amount, or a bare amount on the result (repeatable)")
	cmd.Flags().StringVar(&at, "at", "", "Round time in RFC3339 (defaults to now)")
	cmd.Flags().StringVar(&stateFile, "file", "", "JSON or YAML state file used instead of the configured store")
	_ = cmd.MarkFlagRequired("result")
	return cmd
}

func newRoundDeleteCmd() *cobra.Command {
	var session, stateFile string
	var position int

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a round by its 1-based position and recompute the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			warnIfEphemeral(stateFile)

			name := sessionName(session)
			return withApp(cmd.Context(), stateFile, name, func(a *app) error {
				rows, err := a.tracker.DeleteRound(cmd.Context(), name, position)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted round %d, %d rounds remain\n", position, len(rows))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session name (defaults to DEFAULT_SESSION)")
	cmd.Flags().IntVar(&position, "position", 0, "1-based position of the round")
	cmd.Flags().StringVar(&stateFile, "file", "", "JSON or YAML state file used instead of the configured store")
	_ = cmd.MarkFlagRequired("position")
	return cmd
}

// parseRound builds a round from command line values. Without any stake a
// single unit is placed on the result.
func parseRound(result, multiplier, at string, stakes []string, now func() time.Time) (models.RoundRecord, error) {
	winner, err := models.ParseSegment(result)
	if err != nil {
		return models.RoundRecord{}, err
	}

	extra, err := decimal.NewFromString(strings.TrimSpace(multiplier))
	if err != nil {
		return models.RoundRecord{}, fmt.Errorf("invalid multiplier %q: %w", multiplier, err)
	}

	timestamp := now()
	if at != "" {
		timestamp, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return models.RoundRecord{}, fmt.Errorf("invalid time %q: %w", at, err)
		}
	}

	parsed := make(models.Stakes, len(stakes))
	for _, raw := range stakes {
		segment := winner
		value := raw
		if seg, amount, ok := strings.Cut(raw, "="); ok {
			segment, err = models.ParseSegment(seg)
			if err != nil {
				return models.RoundRecord{}, err
			}
			value = amount
		}

		stake, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return models.RoundRecord{}, fmt.Errorf("invalid stake %q: %w", raw, err)
		}
		parsed[segment] = parsed.On(segment).Add(stake)
	}
	if len(parsed) == 0 {
		parsed = models.SingleStake(winner, decimal.NewFromInt(1))
	}

	record := models.NewRoundRecord(timestamp, winner, parsed)
	record.ExtraMultiplier = extra
	return record, record.Validate()
}
