package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheeltracker/events"
	"wheeltracker/models"
)

type recordingSender struct {
	mu      sync.Mutex
	channel []string
	embeds  []*discordgo.MessageEmbed
	err     error
}

func (s *recordingSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = append(s.channel, channelID)
	s.embeds = append(s.embeds, embed)
	return &discordgo.Message{}, s.err
}

func fixedNow() time.Time {
	return time.Date(2024, 9, 1, 21, 0, 0, 0, time.UTC)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
		signed   string
	}{
		{amount: "0", expected: "0.00", signed: "0.00"},
		{amount: "95", expected: "95.00", signed: "+95.00"},
		{amount: "-20", expected: "-20.00", signed: "-20.00"},
		{amount: "1234.5", expected: "1,234.50", signed: "+1,234.50"},
		{amount: "-1234567.891", expected: "-1,234,567.89", signed: "-1,234,567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			assert.Equal(t, tt.expected, FormatAmount(amount))
			assert.Equal(t, tt.signed, FormatSigned(amount))
		})
	}
}

func TestBuildAlertEmbed(t *testing.T) {
	t.Run("profit", func(t *testing.T) {
		embed := buildAlertEmbed(events.BankrollAlertEvent{
			Session: "friday",
			Alert: models.Alert{
				Level:     models.AlertProfit,
				Bankroll:  decimal.NewFromInt(95),
				Threshold: decimal.NewFromInt(50),
			},
		}, fixedNow())

		assert.Equal(t, ColorSuccess, embed.Color)
		assert.Contains(t, embed.Title, "Profit")
		assert.Contains(t, embed.Description, "friday")
		require.Len(t, embed.Fields, 3)
		assert.Equal(t, "+95.00", embed.Fields[0].Value)
		assert.Equal(t, "+50.00", embed.Fields[1].Value)
		assert.Equal(t, "<t:1725224400:R>", embed.Fields[2].Value)
	})

	t.Run("loss", func(t *testing.T) {
		embed := buildAlertEmbed(events.BankrollAlertEvent{
			Session: "friday",
			Alert: models.Alert{
				Level:     models.AlertLoss,
				Bankroll:  decimal.NewFromInt(-60),
				Threshold: decimal.NewFromInt(50),
			},
		}, fixedNow())

		assert.Equal(t, ColorDanger, embed.Color)
		assert.Contains(t, embed.Title, "Loss")
		assert.Equal(t, "-60.00", embed.Fields[0].Value)
		assert.Equal(t, "-50.00", embed.Fields[1].Value)
	})
}

func TestBuildRoundEmbed(t *testing.T) {
	win := buildRoundEmbed(events.RoundRecordedEvent{Session: "s", Position: 3, Segment: models.SegmentTen, Net: decimal.NewFromInt(10), Bankroll: decimal.NewFromInt(4)})
	assert.Equal(t, ColorSuccess, win.Color)
	assert.Equal(t, "🎡 Round #3: 10", win.Title)

	loss := buildRoundEmbed(events.RoundRecordedEvent{Session: "s", Position: 4, Segment: models.SegmentOne, Net: decimal.NewFromInt(-5)})
	assert.Equal(t, ColorDanger, loss.Color)

	push := buildRoundEmbed(events.RoundRecordedEvent{Session: "s", Position: 5, Segment: models.SegmentOne, Net: decimal.Zero})
	assert.Equal(t, ColorPrimary, push.Color)
}

func TestBuildSessionDeletedEmbed(t *testing.T) {
	assert.Contains(t, buildSessionDeletedEmbed(events.SessionDeletedEvent{Session: "old"}).Description, "old")
	assert.Equal(t, "All sessions were deleted", buildSessionDeletedEmbed(events.SessionDeletedEvent{}).Description)
}

func TestNotifier_Subscribe(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}
	notifier := newNotifierWithSender(Config{ChannelID: "123"}, sender, fixedNow)

	bus := events.NewBus()
	notifier.Subscribe(bus)

	bus.Emit(ctx, events.BankrollAlertEvent{Session: "s", Alert: models.Alert{Level: models.AlertProfit, Bankroll: decimal.NewFromInt(60), Threshold: decimal.NewFromInt(50)}})
	bus.Emit(ctx, events.SessionImportedEvent{Sessions: []string{"a", "b"}, Rounds: 4})
	// Round updates are off by default
	bus.Emit(ctx, events.RoundRecordedEvent{Session: "s", Position: 1, Segment: models.SegmentOne})
	bus.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.embeds, 2)
	assert.Equal(t, []string{"123", "123"}, sender.channel)
}

func TestNotifier_RoundUpdates(t *testing.T) {
	sender := &recordingSender{}
	notifier := newNotifierWithSender(Config{ChannelID: "123", RoundUpdates: true}, sender, fixedNow)

	bus := events.NewBus()
	notifier.Subscribe(bus)

	bus.Emit(context.Background(), events.RoundRecordedEvent{Session: "s", Position: 1, Segment: models.SegmentOne})
	bus.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.embeds, 1)
	assert.Contains(t, sender.embeds[0].Title, "Round #1")
}

func TestNotifier_SendFailureDoesNotPanic(t *testing.T) {
	sender := &recordingSender{err: errors.New("discord down")}
	notifier := newNotifierWithSender(Config{ChannelID: "123"}, sender, fixedNow)

	assert.NotPanics(t, func() {
		notifier.send(buildImportEmbed(events.SessionImportedEvent{Sessions: []string{"a"}, Rounds: 1}))
	})
	assert.NoError(t, notifier.Close())
}

func TestNew_RequiresChannel(t *testing.T) {
	_, err := New(Config{Token: "token"})
	assert.Error(t, err)
}
