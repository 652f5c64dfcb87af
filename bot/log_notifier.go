package bot

import (
	"context"

	log "github.com/sirupsen/logrus"

	"wheeltracker/events"
	"wheeltracker/models"
)

// SubscribeLogging logs bankroll alerts and session lifecycle events
func SubscribeLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBankrollAlert, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BankrollAlertEvent)
		if !ok {
			return
		}

		entry := log.WithFields(log.Fields{
			"session":   e.Session,
			"bankroll":  e.Alert.Bankroll.String(),
			"threshold": e.Alert.Threshold.String(),
		})
		if e.Alert.Level == models.AlertLoss {
			entry.Warn("Loss limit reached")
		} else {
			entry.Info("Profit target reached")
		}
	})

	bus.Subscribe(events.EventTypeRoundDeleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.RoundDeletedEvent); ok {
			log.WithFields(log.Fields{
				"session":   e.Session,
				"position":  e.Position,
				"remaining": e.Remaining,
				"bankroll":  e.Bankroll.String(),
			}).Info("Deleted round")
		}
	})

	bus.Subscribe(events.EventTypeSessionDeleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.SessionDeletedEvent); ok {
			if e.Session == "" {
				log.Info("Deleted all sessions")
				return
			}
			log.WithField("session", e.Session).Info("Deleted session")
		}
	})
}
