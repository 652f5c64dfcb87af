package ledger

import (
	"fmt"

	"wheeltracker/models"
)

// PayoutTable maps each segment to its base payout multiplier.
// It is immutable once constructed.
type PayoutTable struct {
	base  map[models.Segment]int
	order []models.Segment
}

// DefaultPayoutTable returns the canonical table. Bonus segments are tabled at 1,
// the bonus result is carried by the round's extra multiplier.
func DefaultPayoutTable() *PayoutTable {
	table, _ := NewPayoutTable(map[models.Segment]int{
		models.SegmentOne:       1,
		models.SegmentTwo:       2,
		models.SegmentFive:      5,
		models.SegmentTen:       10,
		models.SegmentCoinFlip:  1,
		models.SegmentPachinko:  1,
		models.SegmentCashHunt:  1,
		models.SegmentCrazyTime: 1,
	})
	return table
}

// NewPayoutTable creates a table from a copy of entries. Every entry must be a
// known segment with a multiplier of at least 1.
func NewPayoutTable(entries map[models.Segment]int) (*PayoutTable, error) {
	base := make(map[models.Segment]int, len(entries))
	for seg, mult := range entries {
		// Rounds on other segments never validate, so they cannot be tabled
		if !seg.IsKnown() {
			return nil, &models.UnknownSegmentError{Segment: string(seg)}
		}
		if mult < 1 {
			return nil, fmt.Errorf("base multiplier for %s must be at least 1, got %d", seg, mult)
		}
		base[seg] = mult
	}

	order := make([]models.Segment, 0, len(base))
	for _, seg := range models.AllSegments {
		if _, ok := base[seg]; ok {
			order = append(order, seg)
		}
	}

	return &PayoutTable{base: base, order: order}, nil
}

// BaseMultiplier returns the base multiplier for segment.
// Segments outside the table fail, they are never defaulted.
func (t *PayoutTable) BaseMultiplier(segment models.Segment) (int, error) {
	mult, ok := t.base[segment]
	if !ok {
		return 0, &models.UnknownSegmentError{Segment: string(segment)}
	}
	return mult, nil
}

// Segments returns the segments of the table in display order
func (t *PayoutTable) Segments() []models.Segment {
	out := make([]models.Segment, len(t.order))
	copy(out, t.order)
	return out
}
