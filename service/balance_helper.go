package service

import (
	"context"
	"fmt"

	"commitcast/events"
	"commitcast/models"
)

// RecordBalanceChange records a balance history entry and emits appropriate events.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	// Record the balance history
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	// Emit balance change event (will be flushed after transaction commits)
	event := events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	}
	uow.EventBus().Publish(event)

	return nil
}

func relatedTypePtr(t models.RelatedType) *models.RelatedType {
	return &t
}
