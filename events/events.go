package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"wheeltracker/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRoundRecorded   EventType = "round_recorded"
	EventTypeRoundDeleted    EventType = "round_deleted"
	EventTypeSessionImported EventType = "session_imported"
	EventTypeSessionDeleted  EventType = "session_deleted"
	EventTypeBankrollAlert   EventType = "bankroll_alert"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RoundRecordedEvent is emitted after a round was appended to a session
type RoundRecordedEvent struct {
	Session  string
	Position int
	Segment  models.Segment
	Net      decimal.Decimal
	Bankroll decimal.Decimal
}

func (e RoundRecordedEvent) Type() EventType {
	return EventTypeRoundRecorded
}

// RoundDeletedEvent is emitted after a round was removed and the session recomputed
type RoundDeletedEvent struct {
	Session   string
	Position  int
	Remaining int
	Bankroll  decimal.Decimal
}

func (e RoundDeletedEvent) Type() EventType {
	return EventTypeRoundDeleted
}

// SessionImportedEvent is emitted after bulk data was merged into the store
type SessionImportedEvent struct {
	Sessions []string
	Rounds   int
}

func (e SessionImportedEvent) Type() EventType {
	return EventTypeSessionImported
}

// SessionDeletedEvent is emitted when one session, or every session, was removed
type SessionDeletedEvent struct {
	Session string // empty when the whole store was cleared
}

func (e SessionDeletedEvent) Type() EventType {
	return EventTypeSessionDeleted
}

// BankrollAlertEvent is emitted when a session bankroll crosses an alert threshold
type BankrollAlertEvent struct {
	Session string
	Alert   models.Alert
}

func (e BankrollAlertEvent) Type() EventType {
	return EventTypeBankrollAlert
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow notifier never blocks the caller
	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events published inside a unit of work until the
// work commits, then flushes them to the underlying bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// called after successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	// Handlers outlive the unit of work, so they get a detached context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after rollback or to clear state
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discardedCount", len(b.pending)).Debug("Discarding pending events")
	}
	b.pending = nil
}
