package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"wheeltracker/events"
)

// Config holds bot configuration
type Config struct {
	Token     string
	ChannelID string

	// RoundUpdates posts every recorded round, not just alerts
	RoundUpdates bool
}

// embedSender is the part of a discord session used to post notifications
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts tracker events to a Discord channel
type Notifier struct {
	config  Config
	session *discordgo.Session
	sender  embedSender
	now     func() time.Time
}

// New creates a Discord session for posting notifications. Only the REST API is
// used, so no gateway connection is opened.
func New(config Config) (*Notifier, error) {
	if config.ChannelID == "" {
		return nil, fmt.Errorf("discord alert channel is required")
	}

	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}

	return &Notifier{
		config:  config,
		session: dg,
		sender:  dg,
		now:     time.Now,
	}, nil
}

func newNotifierWithSender(config Config, sender embedSender, now func() time.Time) *Notifier {
	return &Notifier{config: config, sender: sender, now: now}
}

// Subscribe registers the notifier on the event bus
func (n *Notifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBankrollAlert, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BankrollAlertEvent); ok {
			n.send(buildAlertEmbed(e, n.now()))
		}
	})

	bus.Subscribe(events.EventTypeSessionImported, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.SessionImportedEvent); ok {
			n.send(buildImportEmbed(e))
		}
	})

	bus.Subscribe(events.EventTypeSessionDeleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.SessionDeletedEvent); ok {
			n.send(buildSessionDeletedEmbed(e))
		}
	})

	if n.config.RoundUpdates {
		bus.Subscribe(events.EventTypeRoundRecorded, func(ctx context.Context, event events.Event) {
			if e, ok := event.(events.RoundRecordedEvent); ok {
				n.send(buildRoundEmbed(e))
			}
		})
	}

	log.WithField("channel_id", n.config.ChannelID).Info("Discord notifications enabled")
}

// send posts an embed. Failures are logged, a notification never fails the operation.
func (n *Notifier) send(embed *discordgo.MessageEmbed) {
	if _, err := n.sender.ChannelMessageSendEmbed(n.config.ChannelID, embed); err != nil {
		log.WithFields(log.Fields{
			"channel_id": n.config.ChannelID,
			"title":      embed.Title,
		}).Errorf("Failed to send discord notification: %v", err)
	}
}

// Close releases the discord session
func (n *Notifier) Close() error {
	if n.session == nil {
		return nil
	}
	return n.session.Close()
}
