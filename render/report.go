package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"wheeltracker/ledger"
	"wheeltracker/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Report renders every view of a session report for the terminal
func Report(payouts *ledger.PayoutTable, report *models.Report) string {
	sections := []string{
		Title.Render(fmt.Sprintf("Session %s", report.Session)),
	}

	if len(report.Rows) == 0 {
		sections = append(sections, Muted.Render("No rounds recorded"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections,
		Ledger(report.Rows),
		Summary(report.Summary),
		Title.Render(fmt.Sprintf("Top %d rounds", len(report.Top))),
		Ledger(report.Top),
		Title.Render(fmt.Sprintf("Big wins (net >= %s)", report.BigWinThreshold.String())),
		BigWins(report.BigWins),
		Title.Render("Spins since last hit"),
		Drought(payouts, report.SpinsSinceLast),
		Alert(report.Alert),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Ledger renders enriched rows as a table
func Ledger(rows []models.EnrichedRow) string {
	t := newTable("#", "Time", "Result", "Extra", "Mult", "Staked", "Returned", "Net", "Bankroll", "Balance")
	for _, row := range rows {
		t.Row(
			strconv.Itoa(row.Index),
			row.Round.Timestamp.Format(timeLayout),
			row.Round.WinningSegment.String(),
			"x"+row.Round.ExtraMultiplier.String(),
			"x"+row.TotalMultiplier.String(),
			Amount(row.TotalStaked),
			Amount(row.Returned),
			Signed(row.Net),
			Signed(row.Bankroll),
			Amount(row.Balance),
		)
	}
	return t.Render()
}

// Summary renders session aggregates as label/value lines
func Summary(summary *models.Summary) string {
	if summary == nil {
		return Muted.Render("No summary available")
	}

	roi := "N/A"
	if summary.ROIPercent.Valid {
		roi = summary.ROIPercent.Decimal.StringFixed(2) + "%"
	}

	lines := []string{
		line("Spins", strconv.Itoa(summary.TotalSpins)),
		line("Staked", Amount(summary.TotalStaked)),
		line("Returned", Amount(summary.TotalReturned)),
		line("Net", Signed(summary.NetTotal)),
		line("ROI", roi),
		line("Hit rate", fmt.Sprintf("%.1f%% (%d wins, %d losses)", summary.HitRate, summary.Wins, summary.Losses)),
		line("Avg / max win", Signed(summary.AvgWin)+" / "+Signed(summary.MaxWin)),
		line("Avg / max loss", Signed(summary.AvgLoss)+" / "+Signed(summary.MaxLoss)),
		line("Volatility", fmt.Sprintf("%.2f", summary.Volatility)),
		line("Max drawdown", Signed(summary.MaxDrawdown)),
		line("Peak bankroll", Signed(summary.PeakBankroll)),
		line("Final bankroll", Signed(summary.FinalBankroll)),
		line("Streaks", fmt.Sprintf("%d wins, %d losses", summary.LongestWinStreak, summary.LongestLossStreak)),
		line("Segments", frequencies(summary)),
	}
	return Pane.Render(strings.Join(lines, "\n"))
}

// BigWins renders qualifying rows with the distance from the previous one
func BigWins(gaps []models.Gap) string {
	if gaps == nil {
		return Muted.Render("Not enough big wins")
	}

	t := newTable("#", "Result", "Net", "Distance")
	for _, gap := range gaps {
		distance := "-"
		if gap.Distance != nil {
			distance = strconv.Itoa(*gap.Distance)
		}
		t.Row(strconv.Itoa(gap.Row.Index), gap.Row.Round.WinningSegment.String(), Signed(gap.Row.Net), distance)
	}
	return t.Render()
}

// Drought renders spins since each segment last won, in table order
func Drought(payouts *ledger.PayoutTable, since map[models.Segment]int) string {
	t := newTable("Segment", "Spins")
	for _, seg := range payouts.Segments() {
		spins := "never"
		if n, ok := since[seg]; ok {
			spins = strconv.Itoa(n)
		}
		t.Row(seg.String(), spins)
	}
	return t.Render()
}

// Alert renders the current bankroll alert, if any
func Alert(alert models.Alert) string {
	switch alert.Level {
	case models.AlertProfit:
		return Hot.Render(fmt.Sprintf("Profit target reached: %s >= %s", Signed(alert.Bankroll), Amount(alert.Threshold)))
	case models.AlertLoss:
		return Loss.Bold(true).Render(fmt.Sprintf("Loss limit reached: %s <= %s", Signed(alert.Bankroll), Amount(alert.Threshold.Neg())))
	default:
		return Muted.Render("No alert")
	}
}

// Sessions renders the stored session list
func Sessions(infos []models.SessionInfo) string {
	if len(infos) == 0 {
		return Muted.Render("No sessions stored")
	}

	t := newTable("Name", "Rounds", "Updated")
	for _, info := range infos {
		updated := "-"
		if !info.UpdatedAt.IsZero() {
			updated = info.UpdatedAt.Local().Format(timeLayout)
		}
		t.Row(info.Name, strconv.Itoa(info.RoundCount), updated)
	}
	return t.Render()
}

// Amount formats a money amount with two decimals
func Amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Signed formats and colors an amount by its sign
func Signed(d decimal.Decimal) string {
	switch {
	case d.IsPositive():
		return Gain.Render("+" + d.StringFixed(2))
	case d.IsNegative():
		return Loss.Render(d.StringFixed(2))
	default:
		return d.StringFixed(2)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Surface1)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Header
			}
			return Cell
		})
}

func line(label, value string) string {
	return Muted.Render(fmt.Sprintf("%-15s", label)) + " " + value
}

func frequencies(summary *models.Summary) string {
	parts := make([]string, 0, len(summary.Counts))
	for _, seg := range models.AllSegments {
		count, ok := summary.Counts[seg]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d (%.1f%%)", seg, count, summary.Frequencies[seg]))
	}
	return strings.Join(parts, ", ")
}
