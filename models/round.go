package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Stakes maps each segment to the amount placed on it for one round
type Stakes map[Segment]decimal.Decimal

// SingleStake builds the stakes of a round where only one segment was played
func SingleStake(segment Segment, amount decimal.Decimal) Stakes {
	return Stakes{segment: amount}
}

// On returns the stake placed on segment, zero when none was placed
func (s Stakes) On(segment Segment) decimal.Decimal {
	if amount, ok := s[segment]; ok {
		return amount
	}
	return decimal.Zero
}

// Total sums every stake in the round
func (s Stakes) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range s {
		total = total.Add(amount)
	}
	return total
}

// Clone returns an independent copy of the stakes map
func (s Stakes) Clone() Stakes {
	if s == nil {
		return nil
	}
	out := make(Stakes, len(s))
	for seg, amount := range s {
		out[seg] = amount
	}
	return out
}

// RoundRecord represents one completed spin as entered by the user
type RoundRecord struct {
	Timestamp       time.Time       `db:"played_at"`
	WinningSegment  Segment         `db:"winning_segment"`
	ExtraMultiplier decimal.Decimal `db:"extra_multiplier"`
	Stakes          Stakes          `db:"stakes"`
}

// NewRoundRecord creates a round with no boost applied
func NewRoundRecord(at time.Time, winner Segment, stakes Stakes) RoundRecord {
	return RoundRecord{
		Timestamp:       at,
		WinningSegment:  winner,
		ExtraMultiplier: decimal.NewFromInt(1),
		Stakes:          stakes,
	}
}

// Validate checks the value constraints of a round record
func (r RoundRecord) Validate() error {
	if !r.WinningSegment.IsKnown() {
		return &UnknownSegmentError{Segment: string(r.WinningSegment)}
	}
	if r.ExtraMultiplier.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: extra multiplier %s is below 1", ErrInvalidRound, r.ExtraMultiplier)
	}
	for seg, amount := range r.Stakes {
		if !seg.IsKnown() {
			return &UnknownSegmentError{Segment: string(seg)}
		}
		if amount.IsNegative() {
			return fmt.Errorf("%w: stake on %s is negative", ErrInvalidRound, seg)
		}
	}
	return nil
}

// Clone returns a deep copy of the record
func (r RoundRecord) Clone() RoundRecord {
	r.Stakes = r.Stakes.Clone()
	return r
}

// CloneRecords deep-copies a record slice
func CloneRecords(records []RoundRecord) []RoundRecord {
	if records == nil {
		return nil
	}
	out := make([]RoundRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
