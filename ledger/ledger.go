package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wheeltracker/models"
)

// Options parameterize enrichment without changing the payout formula
type Options struct {
	// StartingBudget only shifts the display Balance of each row
	StartingBudget decimal.Decimal
}

// Enrich converts an ordered record sequence into enriched rows.
// The bankroll is a strict left fold over the sequence, so the whole
// sequence is recomputed on every call.
func Enrich(table *PayoutTable, records []models.RoundRecord, opts Options) ([]models.EnrichedRow, error) {
	one := decimal.NewFromInt(1)
	rows := make([]models.EnrichedRow, 0, len(records))
	bankroll := decimal.Zero

	for i, record := range records {
		position := i + 1

		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("round %d: %w", position, err)
		}

		base, err := table.BaseMultiplier(record.WinningSegment)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", position, err)
		}

		totalMultiplier := decimal.NewFromInt(int64(base)).Mul(record.ExtraMultiplier)

		// Stakes on losing segments are forfeited
		stakeOnWinner := record.Stakes.On(record.WinningSegment)
		totalStaked := record.Stakes.Total()
		returned := stakeOnWinner.Mul(totalMultiplier.Add(one))
		net := returned.Sub(totalStaked)
		bankroll = bankroll.Add(net)

		rows = append(rows, models.EnrichedRow{
			Index:           position,
			Round:           record.Clone(),
			BaseMultiplier:  base,
			TotalMultiplier: totalMultiplier,
			StakeOnWinner:   stakeOnWinner,
			TotalStaked:     totalStaked,
			Returned:        returned,
			Net:             net,
			Bankroll:        bankroll,
			Balance:         opts.StartingBudget.Add(bankroll),
		})
	}

	return rows, nil
}

// DeleteAt returns a new record slice without the record at the 1-based position.
// The input slice is left untouched.
func DeleteAt(records []models.RoundRecord, position int) ([]models.RoundRecord, error) {
	if position < 1 || position > len(records) {
		return nil, fmt.Errorf("%w: %d not in 1..%d", models.ErrInvalidPosition, position, len(records))
	}

	out := make([]models.RoundRecord, 0, len(records)-1)
	out = append(out, models.CloneRecords(records[:position-1])...)
	out = append(out, models.CloneRecords(records[position:])...)
	return out, nil
}
