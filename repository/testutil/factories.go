package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"wheeltracker/models"
)

// CreateTestRound creates a round with a single stake on the winning segment
func CreateTestRound(winner models.Segment, stake string) models.RoundRecord {
	at := time.Date(2024, 9, 1, 20, 0, 0, 0, time.UTC)
	return models.NewRoundRecord(at, winner, models.SingleStake(winner, decimal.RequireFromString(stake)))
}

// CreateTestMultiStakeRound creates a boosted round with stakes on several segments
func CreateTestMultiStakeRound(winner models.Segment, extra string, stakes map[models.Segment]string) models.RoundRecord {
	at := time.Date(2024, 9, 1, 20, 5, 0, 0, time.UTC)

	parsed := make(models.Stakes, len(stakes))
	for seg, amount := range stakes {
		parsed[seg] = decimal.RequireFromString(amount)
	}

	record := models.NewRoundRecord(at, winner, parsed)
	record.ExtraMultiplier = decimal.RequireFromString(extra)
	return record
}

// CreateTestSession creates n rounds alternating between a win on 2 and a loss
func CreateTestSession(n int) []models.RoundRecord {
	records := make([]models.RoundRecord, 0, n)
	for i := 0; i < n; i++ {
		var r models.RoundRecord
		if i%2 == 0 {
			r = CreateTestRound(models.SegmentTwo, "2")
		} else {
			r = models.NewRoundRecord(time.Time{}, models.SegmentTen, models.SingleStake(models.SegmentOne, decimal.NewFromInt(3)))
		}
		r.Timestamp = time.Date(2024, 9, 1, 20, i, 0, 0, time.UTC)
		records = append(records, r)
	}
	return records
}
