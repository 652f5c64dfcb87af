package ledger

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheeltracker/models"
)

func drawdownRecords() []models.RoundRecord {
	return []models.RoundRecord{
		round(0, models.SegmentFive, "2", models.Stakes{models.SegmentFive: dec("10"), models.SegmentOne: dec("5")}),
		round(1, models.SegmentTwo, "1", models.Stakes{models.SegmentFive: dec("15"), models.SegmentTen: dec("5")}),
	}
}

func TestSummarize_DrawdownExample(t *testing.T) {
	rows, err := Enrich(DefaultPayoutTable(), drawdownRecords(), Options{})
	require.NoError(t, err)
	require.True(t, rows[0].Bankroll.Equal(dec("95")))
	require.True(t, rows[1].Bankroll.Equal(dec("75")))

	summary, err := Summarize(rows)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalSpins)
	assert.True(t, summary.TotalStaked.Equal(dec("35")))
	assert.True(t, summary.TotalReturned.Equal(dec("110")))
	assert.True(t, summary.NetTotal.Equal(dec("75")))
	assert.True(t, summary.MaxDrawdown.Equal(dec("-20")), "got %s", summary.MaxDrawdown)
	assert.True(t, summary.PeakBankroll.Equal(dec("95")))
	assert.True(t, summary.FinalBankroll.Equal(dec("75")))

	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.InDelta(t, 50.0, summary.HitRate, 1e-9)
	assert.True(t, summary.AvgWin.Equal(dec("95")))
	assert.True(t, summary.MaxWin.Equal(dec("95")))
	assert.True(t, summary.AvgLoss.Equal(dec("-20")))
	assert.True(t, summary.MaxLoss.Equal(dec("-20")))
	assert.Equal(t, 1, summary.LongestWinStreak)
	assert.Equal(t, 1, summary.LongestLossStreak)

	// nets 95 and -20: mean 37.5, squared deviations 2 * 57.5^2
	assert.InDelta(t, math.Sqrt(2*57.5*57.5), summary.Volatility, 1e-9)

	assert.Equal(t, map[models.Segment]int{models.SegmentFive: 1, models.SegmentTwo: 1}, summary.Counts)
	assert.InDelta(t, 50.0, summary.Frequencies[models.SegmentFive], 1e-9)
}

func TestSummarize_ROI(t *testing.T) {
	t.Run("exact when staked", func(t *testing.T) {
		rows, err := Enrich(DefaultPayoutTable(), []models.RoundRecord{
			round(0, models.SegmentOne, "1", models.SingleStake(models.SegmentOne, dec("10"))),
			round(1, models.SegmentTwo, "1", models.SingleStake(models.SegmentOne, dec("10"))),
		}, Options{})
		require.NoError(t, err)

		summary, err := Summarize(rows)
		require.NoError(t, err)
		require.True(t, summary.ROIPercent.Valid)

		// returned 20 of 20 staked
		assert.True(t, summary.ROIPercent.Decimal.IsZero(), "got %s", summary.ROIPercent.Decimal)

		expected := summary.TotalReturned.Div(summary.TotalStaked).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
		assert.True(t, summary.ROIPercent.Decimal.Equal(expected))
	})

	t.Run("not applicable without stakes", func(t *testing.T) {
		rows, err := Enrich(DefaultPayoutTable(), []models.RoundRecord{
			round(0, models.SegmentTen, "1", nil),
			round(1, models.SegmentOne, "1", models.Stakes{}),
		}, Options{})
		require.NoError(t, err)

		summary, err := Summarize(rows)
		require.NoError(t, err)
		assert.False(t, summary.ROIPercent.Valid)
		assert.Equal(t, 0, summary.Wins)
		assert.Equal(t, 0, summary.Losses)
	})

	t.Run("helper", func(t *testing.T) {
		roi := ROIPercent(dec("150"), dec("100"))
		require.True(t, roi.Valid)
		assert.True(t, roi.Decimal.Equal(dec("50")))

		roi = ROIPercent(dec("0"), dec("40"))
		require.True(t, roi.Valid)
		assert.True(t, roi.Decimal.Equal(dec("-100")))

		assert.False(t, ROIPercent(dec("10"), decimal.Zero).Valid)
	})
}

func TestSummarize_Empty(t *testing.T) {
	summary, err := Summarize(nil)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.TotalSpins)
	assert.True(t, summary.NetTotal.IsZero())
	assert.False(t, summary.ROIPercent.Valid)
}

func TestSummarize_Streaks(t *testing.T) {
	rows := rowsWithNet("5", "3", "1", "-2", "-4", "0", "-1", "8", "-3", "-3", "-3")

	summary, err := Summarize(rows)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.LongestWinStreak)
	assert.Equal(t, 3, summary.LongestLossStreak)
	assert.Equal(t, 4, summary.Wins)
	assert.Equal(t, 6, summary.Losses)
}

func TestVolatility(t *testing.T) {
	assert.Zero(t, Volatility(nil))
	assert.Zero(t, Volatility(rowsWithNet("12")))
	assert.Zero(t, Volatility(rowsWithNet("4", "4", "4")))

	// 2,4,4,4,5,5,7,9: mean 5, sum of squares 32
	assert.InDelta(t, math.Sqrt(32.0/7.0), Volatility(rowsWithNet("2", "4", "4", "4", "5", "5", "7", "9")), 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		nets     []string
		expected string
	}{
		{name: "empty", nets: nil, expected: "0"},
		{name: "only gains", nets: []string{"5", "10", "1"}, expected: "0"},
		{name: "losing from the first round", nets: []string{"-10", "-5"}, expected: "-5"},
		{name: "recovery then deeper fall", nets: []string{"30", "-10", "20", "-45", "5"}, expected: "-45"},
		{name: "two dips", nets: []string{"10", "-4", "-4", "20", "-6"}, expected: "-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(rowsWithNet(tt.nets...))
			assert.True(t, got.Equal(dec(tt.expected)), "got %s", got)
		})
	}
}

// rowsWithNet builds enriched rows with the given nets and a consistent bankroll
func rowsWithNet(nets ...string) []models.EnrichedRow {
	rows := make([]models.EnrichedRow, 0, len(nets))
	bankroll := decimal.Zero
	for i, n := range nets {
		net := dec(n)
		bankroll = bankroll.Add(net)
		rows = append(rows, models.EnrichedRow{
			Index:    i + 1,
			Round:    models.NewRoundRecord(baseTime, models.SegmentOne, nil),
			Net:      net,
			Bankroll: bankroll,
		})
	}
	return rows
}
