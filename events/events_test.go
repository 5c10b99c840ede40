package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"commitcast/models"

	"github.com/stretchr/testify/assert"
)

func TestFlushDeliversPendingEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BetPlacedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		defer wg.Done()
		if betEvent, ok := event.(BetPlacedEvent); ok {
			eventReceived <- betEvent
		} else {
			t.Errorf("Expected BetPlacedEvent, got %T", event)
		}
	})

	testEvent := BetPlacedEvent{
		BetID:        42,
		CommitmentID: 7,
		BettorID:     123,
		Direction:    models.BetDirectionWillComplete,
		Amount:       250,
	}

	transactionalBus.Publish(testEvent)

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	wg.Wait()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestDiscardDropsPendingEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	delivered := make(chan Event, 1)
	mainBus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		delivered <- event
	})

	transactionalBus.Publish(BetPlacedEvent{BetID: 1, CommitmentID: 1, BettorID: 1, Amount: 10})
	transactionalBus.Discard()

	// A flush after discard has nothing left to emit
	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	select {
	case <-delivered:
		t.Fatal("Discarded event should not be delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandlerPanicDoesNotPropagate(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		defer wg.Done()
		panic("handler failure")
	})

	received := make(chan Event, 1)
	bus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		defer wg.Done()
		received <- event
	})

	bus.Emit(context.Background(), UserCreatedEvent{UserID: 9, Email: "a@example.com"})

	wg.Wait()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("Second handler should still receive the event")
	}
}
