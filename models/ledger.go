package models

import (
	"github.com/shopspring/decimal"
)

// EnrichedRow is a round record plus the payout and bankroll derived from it
type EnrichedRow struct {
	Index           int // 1-based position in the session
	Round           RoundRecord
	BaseMultiplier  int
	TotalMultiplier decimal.Decimal
	StakeOnWinner   decimal.Decimal
	TotalStaked     decimal.Decimal
	Returned        decimal.Decimal
	Net             decimal.Decimal
	Bankroll        decimal.Decimal // cumulative net, starts at zero
	Balance         decimal.Decimal // starting budget + bankroll, display only
}

// IsWin returns true if the round ended with a positive net
func (r EnrichedRow) IsWin() bool {
	return r.Net.IsPositive()
}

// IsLoss returns true if the round ended with a negative net
func (r EnrichedRow) IsLoss() bool {
	return r.Net.IsNegative()
}

// Summary holds session-level aggregates over an enriched ledger
type Summary struct {
	TotalSpins    int
	TotalStaked   decimal.Decimal
	TotalReturned decimal.Decimal
	NetTotal      decimal.Decimal

	// ROIPercent is invalid when nothing was staked
	ROIPercent decimal.NullDecimal

	Counts      map[Segment]int
	Frequencies map[Segment]float64 // Percentage as 0-100

	Wins    int
	Losses  int
	HitRate float64 // Percentage as 0-100

	AvgWin  decimal.Decimal
	MaxWin  decimal.Decimal
	AvgLoss decimal.Decimal
	MaxLoss decimal.Decimal

	Volatility    float64
	MaxDrawdown   decimal.Decimal
	PeakBankroll  decimal.Decimal
	FinalBankroll decimal.Decimal

	LongestWinStreak  int
	LongestLossStreak int
}

// Gap is a qualifying row and its distance from the previous qualifying row
type Gap struct {
	Row      EnrichedRow
	Distance *int // nil for the first qualifying row
}

// AlertLevel classifies the bankroll against the configured thresholds
type AlertLevel string

const (
	AlertNone   AlertLevel = "none"
	AlertProfit AlertLevel = "profit"
	AlertLoss   AlertLevel = "loss"
)

// AlertThresholds are the bankroll magnitudes that trigger alerts
type AlertThresholds struct {
	Profit decimal.Decimal
	Loss   decimal.Decimal // positive magnitude; triggers at -Loss
}

// Alert is the outcome of checking a bankroll against thresholds
type Alert struct {
	Level     AlertLevel
	Bankroll  decimal.Decimal
	Threshold decimal.Decimal
}

// Triggered returns true if the alert is not AlertNone
func (a Alert) Triggered() bool {
	return a.Level != AlertNone
}

// Report bundles every view of one session for display
type Report struct {
	Session string
	Rows    []EnrichedRow

	// Summary is nil when the session has no rounds
	Summary *Summary

	Top []EnrichedRow

	// BigWins is nil when fewer than two rounds reach BigWinThreshold
	BigWins         []Gap
	BigWinThreshold decimal.Decimal

	SpinsSinceLast map[Segment]int
	Alert          Alert
}
