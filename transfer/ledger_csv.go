package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"wheeltracker/ledger"
	"wheeltracker/models"
)

// WriteLedgerCSV writes enriched rows with one stake column per segment of table
func WriteLedgerCSV(w io.Writer, table *ledger.PayoutTable, rows []models.EnrichedRow) error {
	segments := table.Segments()

	header := []string{"index", "timestamp", "segment", "extra_multiplier", "base_multiplier", "total_multiplier"}
	for _, seg := range segments {
		header = append(header, stakeColumnPrefix+seg.String())
	}
	header = append(header, "total_staked", "returned", "net", "bankroll")

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}

	for _, row := range rows {
		out := []string{
			strconv.Itoa(row.Index),
			row.Round.Timestamp.Format(time.RFC3339),
			row.Round.WinningSegment.String(),
			row.Round.ExtraMultiplier.String(),
			strconv.Itoa(row.BaseMultiplier),
			row.TotalMultiplier.String(),
		}
		for _, seg := range segments {
			out = append(out, row.Round.Stakes.On(seg).String())
		}
		out = append(out,
			row.TotalStaked.String(),
			row.Returned.String(),
			row.Net.String(),
			row.Bankroll.String(),
		)

		if err := writer.Write(out); err != nil {
			return fmt.Errorf("failed to write ledger row %d: %w", row.Index, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
