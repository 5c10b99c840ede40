package events

import (
	"context"
	"sync"

	"commitcast/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange      EventType = "balance_change"
	EventTypeUserCreated        EventType = "user_created"
	EventTypeBetPlaced          EventType = "bet_placed"
	EventTypeBetCancelled       EventType = "bet_cancelled"
	EventTypeCommitmentResolved EventType = "commitment_resolved"
	EventTypeCommitmentCreated  EventType = "commitment_created"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new account and its initial grant
type UserCreatedEvent struct {
	UserID         int64
	Email          string
	DisplayName    string
	InitialBalance int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BetPlacedEvent represents a bet that was placed on a commitment
type BetPlacedEvent struct {
	BetID        int64
	CommitmentID int64
	BettorID     int64
	Direction    models.BetDirection
	Amount       int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetCancelledEvent represents a bet reversed before resolution
type BetCancelledEvent struct {
	BetID        int64
	CommitmentID int64
	BettorID     int64
	Amount       int64
}

func (e BetCancelledEvent) Type() EventType {
	return EventTypeBetCancelled
}

// CommitmentCreatedEvent represents a newly published commitment
type CommitmentCreatedEvent struct {
	CommitmentID int64
	PublicCode   string
	OwnerID      int64
	Title        string
}

func (e CommitmentCreatedEvent) Type() EventType {
	return EventTypeCommitmentCreated
}

// CommitmentResolvedEvent represents a commitment that reached a terminal
// state and had its bets settled
type CommitmentResolvedEvent struct {
	CommitmentID     int64
	OwnerID          int64
	Outcome          models.CommitmentStatus
	BetsSettled      int
	Pot              int64
	TotalDistributed int64
}

func (e CommitmentResolvedEvent) Type() EventType {
	return EventTypeCommitmentResolved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
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
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful DB commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction context that produced them
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
