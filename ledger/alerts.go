package ledger

import (
	"github.com/shopspring/decimal"

	"wheeltracker/models"
)

// DefaultAlertThresholds returns the profit and loss limits used when none are configured
func DefaultAlertThresholds() models.AlertThresholds {
	return models.AlertThresholds{
		Profit: decimal.NewFromInt(50),
		Loss:   decimal.NewFromInt(50),
	}
}

// EvaluateAlert classifies bankroll against the thresholds.
// Loss is checked first and triggers at or below -thresholds.Loss.
func EvaluateAlert(bankroll decimal.Decimal, thresholds models.AlertThresholds) models.Alert {
	switch {
	case bankroll.LessThanOrEqual(thresholds.Loss.Neg()):
		return models.Alert{Level: models.AlertLoss, Bankroll: bankroll, Threshold: thresholds.Loss}
	case bankroll.GreaterThanOrEqual(thresholds.Profit):
		return models.Alert{Level: models.AlertProfit, Bankroll: bankroll, Threshold: thresholds.Profit}
	default:
		return models.Alert{Level: models.AlertNone, Bankroll: bankroll}
	}
}
