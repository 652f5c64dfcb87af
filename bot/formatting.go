package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount formats an amount with two decimals and thousand separators
func FormatAmount(amount decimal.Decimal) string {
	str := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(str, ".")

	var result strings.Builder
	if amount.IsNegative() {
		result.WriteRune('-')
	}

	n := len(intPart)
	for i, digit := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	result.WriteRune('.')
	result.WriteString(fracPart)

	return result.String()
}

// FormatSigned formats an amount with an explicit sign, e.g. "+95.00"
func FormatSigned(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + FormatAmount(amount)
	}
	return FormatAmount(amount)
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
