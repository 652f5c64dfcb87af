package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"wheeltracker/events"
	"wheeltracker/models"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

// buildAlertEmbed creates the embed posted when a bankroll crosses a threshold
func buildAlertEmbed(event events.BankrollAlertEvent, at time.Time) *discordgo.MessageEmbed {
	title := "📈 **Profit Target Reached**"
	color := ColorSuccess
	threshold := FormatSigned(event.Alert.Threshold)
	if event.Alert.Level == models.AlertLoss {
		title = "📉 **Loss Limit Reached**"
		color = ColorDanger
		threshold = FormatAmount(event.Alert.Threshold.Neg())
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("Session **%s** is at **%s** bankroll", event.Session, FormatSigned(event.Alert.Bankroll)),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Bankroll", Value: FormatSigned(event.Alert.Bankroll), Inline: true},
			{Name: "Threshold", Value: threshold, Inline: true},
			{Name: "Time", Value: FormatDiscordTimestamp(at, "R"), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Consider ending the session",
		},
	}
}

// buildRoundEmbed creates the compact embed for a recorded round
func buildRoundEmbed(event events.RoundRecordedEvent) *discordgo.MessageEmbed {
	color := ColorPrimary
	switch {
	case event.Net.IsPositive():
		color = ColorSuccess
	case event.Net.IsNegative():
		color = ColorDanger
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🎡 Round #%d: %s", event.Position, event.Segment),
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Net", Value: FormatSigned(event.Net), Inline: true},
			{Name: "Bankroll", Value: FormatSigned(event.Bankroll), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Session " + event.Session,
		},
	}
}

// buildImportEmbed creates the embed for a bulk import
func buildImportEmbed(event events.SessionImportedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📥 Rounds Imported",
		Description: fmt.Sprintf("Imported **%d** rounds into %s", event.Rounds, strings.Join(event.Sessions, ", ")),
		Color:       ColorPrimary,
	}
}

// buildSessionDeletedEmbed creates the embed for a removed session
func buildSessionDeletedEmbed(event events.SessionDeletedEvent) *discordgo.MessageEmbed {
	description := fmt.Sprintf("Session **%s** was deleted", event.Session)
	if event.Session == "" {
		description = "All sessions were deleted"
	}
	return &discordgo.MessageEmbed{
		Title:       "🗑️ Session Deleted",
		Description: description,
		Color:       ColorWarning,
	}
}
