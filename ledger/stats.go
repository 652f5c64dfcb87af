package ledger

import (
	"math"

	"github.com/shopspring/decimal"

	"wheeltracker/models"
)

var hundred = decimal.NewFromInt(100)

// Summarize computes session aggregates purely from the enriched rows.
// An empty ledger returns a zero summary together with ErrInsufficientData.
func Summarize(rows []models.EnrichedRow) (*models.Summary, error) {
	summary := &models.Summary{
		TotalStaked:   decimal.Zero,
		TotalReturned: decimal.Zero,
		NetTotal:      decimal.Zero,
		Counts:        make(map[models.Segment]int),
		Frequencies:   make(map[models.Segment]float64),
		AvgWin:        decimal.Zero,
		MaxWin:        decimal.Zero,
		AvgLoss:       decimal.Zero,
		MaxLoss:       decimal.Zero,
		MaxDrawdown:   decimal.Zero,
		PeakBankroll:  decimal.Zero,
		FinalBankroll: decimal.Zero,
	}
	if len(rows) == 0 {
		return summary, models.ErrInsufficientData
	}

	summary.TotalSpins = len(rows)

	winSum := decimal.Zero
	lossSum := decimal.Zero
	var winStreak, lossStreak int

	for i, row := range rows {
		summary.TotalStaked = summary.TotalStaked.Add(row.TotalStaked)
		summary.TotalReturned = summary.TotalReturned.Add(row.Returned)
		summary.NetTotal = summary.NetTotal.Add(row.Net)
		summary.Counts[row.Round.WinningSegment]++

		if i == 0 || row.Bankroll.GreaterThan(summary.PeakBankroll) {
			summary.PeakBankroll = row.Bankroll
		}

		switch {
		case row.IsWin():
			summary.Wins++
			winSum = winSum.Add(row.Net)
			if row.Net.GreaterThan(summary.MaxWin) {
				summary.MaxWin = row.Net
			}
			winStreak++
			lossStreak = 0
		case row.IsLoss():
			summary.Losses++
			lossSum = lossSum.Add(row.Net)
			if row.Net.LessThan(summary.MaxLoss) {
				summary.MaxLoss = row.Net
			}
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}

		if winStreak > summary.LongestWinStreak {
			summary.LongestWinStreak = winStreak
		}
		if lossStreak > summary.LongestLossStreak {
			summary.LongestLossStreak = lossStreak
		}
	}

	summary.ROIPercent = ROIPercent(summary.TotalReturned, summary.TotalStaked)

	for seg, count := range summary.Counts {
		summary.Frequencies[seg] = percentOf(count, summary.TotalSpins)
	}
	summary.HitRate = percentOf(summary.Wins, summary.TotalSpins)

	if summary.Wins > 0 {
		summary.AvgWin = winSum.Div(decimal.NewFromInt(int64(summary.Wins)))
	}
	if summary.Losses > 0 {
		summary.AvgLoss = lossSum.Div(decimal.NewFromInt(int64(summary.Losses)))
	}

	summary.Volatility = Volatility(rows)
	summary.MaxDrawdown = MaxDrawdown(rows)
	summary.FinalBankroll = rows[len(rows)-1].Bankroll

	return summary, nil
}

// ROIPercent returns (returned/staked - 1) * 100, invalid when nothing was staked
func ROIPercent(returned, staked decimal.Decimal) decimal.NullDecimal {
	if staked.IsZero() {
		return decimal.NullDecimal{}
	}
	roi := returned.Div(staked).Sub(decimal.NewFromInt(1)).Mul(hundred)
	return decimal.NewNullDecimal(roi)
}

// Volatility is the sample standard deviation of the net series.
// Fewer than two rows yield 0.
func Volatility(rows []models.EnrichedRow) float64 {
	n := len(rows)
	if n < 2 {
		return 0
	}

	var mean float64
	for _, row := range rows {
		mean += row.Net.InexactFloat64()
	}
	mean /= float64(n)

	var sumSquares float64
	for _, row := range rows {
		d := row.Net.InexactFloat64() - mean
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(n-1))
}

// MaxDrawdown returns min(bankroll[i] - max(bankroll[0..i])), the largest
// peak-to-trough decline as a non-positive amount. Empty input yields 0.
func MaxDrawdown(rows []models.EnrichedRow) decimal.Decimal {
	drawdown := decimal.Zero
	if len(rows) == 0 {
		return drawdown
	}

	peak := rows[0].Bankroll
	for _, row := range rows {
		if row.Bankroll.GreaterThan(peak) {
			peak = row.Bankroll
		}
		if dd := row.Bankroll.Sub(peak); dd.LessThan(drawdown) {
			drawdown = dd
		}
	}
	return drawdown
}

// percentOf calculates part as a percentage of total
func percentOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
