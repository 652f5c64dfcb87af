package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"wheeltracker/models"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan RoundRecordedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeRoundRecorded, func(ctx context.Context, event Event) {
		defer wg.Done()
		if recorded, ok := event.(RoundRecordedEvent); ok {
			select {
			case eventReceived <- recorded:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected RoundRecordedEvent, got %T", event)
		}
	})

	testEvent := RoundRecordedEvent{
		Session:  "friday",
		Position: 3,
		Segment:  models.SegmentFive,
		Net:      decimal.NewFromInt(95),
		Bankroll: decimal.NewFromInt(75),
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	wg.Wait()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent.Session, received.Session)
		assert.Equal(t, testEvent.Position, received.Position)
		assert.Equal(t, testEvent.Segment, received.Segment)
		assert.True(t, testEvent.Net.Equal(received.Net))
		assert.True(t, testEvent.Bankroll.Equal(received.Bankroll))
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestDiscardDropsPendingEvents verifies nothing reaches the bus after a rollback
func TestDiscardDropsPendingEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var calls atomic.Int32
	mainBus.Subscribe(EventTypeBankrollAlert, func(ctx context.Context, event Event) {
		calls.Add(1)
	})

	transactionalBus.Publish(BankrollAlertEvent{Session: "s", Alert: models.Alert{Level: models.AlertLoss}})
	transactionalBus.Discard()
	assert.NoError(t, transactionalBus.Flush(context.Background()))

	mainBus.Wait()
	assert.Equal(t, int32(0), calls.Load())
}

// TestWaitBlocksUntilHandlersFinish checks that Wait covers every emitted handler
func TestWaitBlocksUntilHandlersFinish(t *testing.T) {
	bus := NewBus()

	var done atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventTypeSessionImported, func(ctx context.Context, event Event) {
			time.Sleep(20 * time.Millisecond)
			done.Add(1)
		})
	}

	bus.Emit(context.Background(), SessionImportedEvent{Sessions: []string{"a", "b"}, Rounds: 12})
	bus.Wait()

	assert.Equal(t, int32(3), done.Load())
}

// TestPanickingHandlerIsRecovered ensures one bad handler does not stop the others
func TestPanickingHandlerIsRecovered(t *testing.T) {
	bus := NewBus()

	var delivered atomic.Bool
	bus.Subscribe(EventTypeRoundDeleted, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeRoundDeleted, func(ctx context.Context, event Event) {
		delivered.Store(true)
	})

	bus.Emit(context.Background(), RoundDeletedEvent{Session: "s", Position: 1})
	bus.Wait()

	assert.True(t, delivered.Load())
}

// TestFlushedContextIsNotCancelled verifies handlers survive the caller's context
func TestFlushedContextIsNotCancelled(t *testing.T) {
	bus := NewBus()
	transactionalBus := NewTransactionalBus(bus)

	var handlerErr atomic.Value
	bus.Subscribe(EventTypeSessionDeleted, func(ctx context.Context, event Event) {
		time.Sleep(10 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			handlerErr.Store(err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(SessionDeletedEvent{Session: "gone"})
	assert.NoError(t, transactionalBus.Flush(ctx))
	cancel()

	bus.Wait()
	assert.Nil(t, handlerErr.Load())
}
