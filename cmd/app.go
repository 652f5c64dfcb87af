package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"wheeltracker/bot"
	"wheeltracker/config"
	"wheeltracker/database"
	"wheeltracker/events"
	"wheeltracker/ledger"
	"wheeltracker/repository"
	"wheeltracker/service"
	"wheeltracker/store"
)

// app holds the wired services for one command invocation
type app struct {
	tracker  service.TrackerService
	payouts  *ledger.PayoutTable
	eventBus *events.Bus
	db       *database.DB
	notifier *bot.Notifier
}

// newApp wires the tracker against PostgreSQL when DATABASE_URL is set,
// otherwise against a process-local memory store.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Get()

	eventBus := events.NewBus()
	bot.SubscribeLogging(eventBus)

	a := &app{
		payouts:  ledger.DefaultPayoutTable(),
		eventBus: eventBus,
	}

	var uowFactory service.UnitOfWorkFactory
	if cfg.HasDatabase() {
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		uowFactory = repository.NewUnitOfWorkFactory(db, eventBus)
	} else {
		log.Debug("DATABASE_URL not set, using in-memory session store")
		uowFactory = repository.NewMemoryUnitOfWorkFactory(store.NewMemoryStore(), eventBus)
	}

	if cfg.DiscordToken != "" {
		notifier, err := bot.New(notifierConfig(cfg))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		notifier.Subscribe(eventBus)
		a.notifier = notifier
	}

	a.tracker = service.NewTrackerService(uowFactory, a.payouts)
	return a, nil
}

func notifierConfig(cfg *config.Config) bot.Config {
	return bot.Config{
		Token:        cfg.DiscordToken,
		ChannelID:    cfg.DiscordAlertChannelID,
		RoundUpdates: cfg.DiscordRoundUpdates,
	}
}

// newMemoryApp wires the tracker against a fresh memory store, regardless of configuration
func newMemoryApp() *app {
	eventBus := events.NewBus()
	bot.SubscribeLogging(eventBus)

	payouts := ledger.DefaultPayoutTable()
	return &app{
		tracker:  service.NewTrackerService(repository.NewMemoryUnitOfWorkFactory(store.NewMemoryStore(), eventBus), payouts),
		payouts:  payouts,
		eventBus: eventBus,
	}
}

// close waits for event handlers, then releases connections
func (a *app) close() {
	a.eventBus.Wait()

	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			log.Errorf("Error closing Discord notifier: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
