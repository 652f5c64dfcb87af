package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"wheeltracker/models"
)

// TopNByNet returns at most n rows ordered by net descending.
// Ties keep their original order, so the earliest round ranks first.
func TopNByNet(rows []models.EnrichedRow, n int) []models.EnrichedRow {
	if n <= 0 || len(rows) == 0 {
		return []models.EnrichedRow{}
	}

	sorted := make([]models.EnrichedRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Net.GreaterThan(sorted[j].Net)
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// DistanceBetweenBigWins returns every row whose net reaches threshold along
// with the number of rounds since the previous such row.
func DistanceBetweenBigWins(rows []models.EnrichedRow, threshold decimal.Decimal) ([]models.Gap, error) {
	return gapsWhere(rows, func(row models.EnrichedRow) bool {
		return row.Net.GreaterThanOrEqual(threshold)
	})
}

// SegmentGaps returns the rounds won by segment and the distance between them
func SegmentGaps(rows []models.EnrichedRow, segment models.Segment) ([]models.Gap, error) {
	return gapsWhere(rows, func(row models.EnrichedRow) bool {
		return row.Round.WinningSegment == segment
	})
}

// SpinsSinceLast maps each segment of the table to the number of rounds played
// since it last won. Segments that never won are absent.
func SpinsSinceLast(table *PayoutTable, rows []models.EnrichedRow) map[models.Segment]int {
	since := make(map[models.Segment]int)
	if len(rows) == 0 {
		return since
	}

	last := rows[len(rows)-1].Index
	for _, seg := range table.Segments() {
		for i := len(rows) - 1; i >= 0; i-- {
			if rows[i].Round.WinningSegment == seg {
				since[seg] = last - rows[i].Index
				break
			}
		}
	}
	return since
}

func gapsWhere(rows []models.EnrichedRow, match func(models.EnrichedRow) bool) ([]models.Gap, error) {
	var gaps []models.Gap
	prev := 0

	for _, row := range rows {
		if !match(row) {
			continue
		}

		gap := models.Gap{Row: row}
		if len(gaps) > 0 {
			distance := row.Index - prev
			gap.Distance = &distance
		}
		gaps = append(gaps, gap)
		prev = row.Index
	}

	if len(gaps) < 2 {
		return nil, models.ErrInsufficientData
	}
	return gaps, nil
}
