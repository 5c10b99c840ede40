package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commitcast/events"
	"commitcast/models"
)

// betService implements the BetService interface
type betService struct {
	uowFactory UnitOfWorkFactory
}

// NewBetService creates a new bet service
func NewBetService(uowFactory UnitOfWorkFactory) BetService {
	return &betService{
		uowFactory: uowFactory,
	}
}

// Place stakes currency on a commitment's outcome. The stake is debited
// immediately with a conditional update, so the transaction fails rather
// than letting a balance go negative. The commitment row is read with a
// lock, so a concurrent resolution either waits for this bet to commit or
// flips the status first and the check below rejects the bet.
func (s *betService) Place(ctx context.Context, commitmentID, bettorID int64, direction models.BetDirection, amount int64) (*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	commitment, err := uow.CommitmentRepository().GetByIDForUpdate(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment == nil {
		return nil, fmt.Errorf("commitment %d: %w", commitmentID, ErrNotFound)
	}
	if commitment.IsOwner(bettorID) {
		return nil, fmt.Errorf("cannot bet on your own commitment: %w", ErrForbidden)
	}
	if !commitment.IsPending() {
		return nil, fmt.Errorf("commitment is already %s: %w", commitment.Status, ErrInvalidState)
	}
	if !commitment.CanAcceptBets(time.Now()) {
		return nil, fmt.Errorf("commitment deadline has passed: %w", ErrInvalidState)
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("direction must be will_complete or will_fail: %w", ErrInvalidInput)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("bet amount must be positive: %w", ErrInvalidInput)
	}

	balance, err := uow.BalanceRepository().Get(ctx, bettorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		return nil, fmt.Errorf("balance for user %d: %w", bettorID, ErrNotFound)
	}
	if balance.Balance < amount {
		return nil, fmt.Errorf("insufficient balance: have %d, need %d: %w", balance.Balance, amount, ErrInsufficientFunds)
	}

	// Conditional debit. A concurrent spender can still drain the balance
	// between the read above and this update, in which case the deduct
	// fails and the whole transaction rolls back.
	if err := uow.BalanceRepository().Deduct(ctx, bettorID, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, fmt.Errorf("insufficient balance for stake of %d: %w", amount, ErrInsufficientFunds)
		}
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	bet := &models.Bet{
		CommitmentID: commitmentID,
		BettorID:     bettorID,
		Direction:    direction,
		Amount:       amount,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          bettorID,
		BalanceBefore:   balance.Balance,
		BalanceAfter:    balance.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeBetStake,
		TransactionMetadata: map[string]any{
			"commitment_id": commitmentID,
			"bet_id":        bet.ID,
			"direction":     string(direction),
		},
		RelatedID:   &bet.ID,
		RelatedType: relatedTypePtr(models.RelatedTypeBet),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record stake: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:        bet.ID,
		CommitmentID: commitmentID,
		BettorID:     bettorID,
		Direction:    direction,
		Amount:       amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}

// Cancel reverses an unresolved bet, refunding the stake
func (s *betService) Cancel(ctx context.Context, betID, actorID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return fmt.Errorf("bet %d: %w", betID, ErrNotFound)
	}
	if bet.BettorID != actorID {
		return fmt.Errorf("only the bettor can cancel a bet: %w", ErrForbidden)
	}
	if bet.Resolved {
		return fmt.Errorf("bet is already settled: %w", ErrInvalidState)
	}

	// Lock the parent row so a concurrent resolution cannot settle this
	// bet while the refund is in flight.
	commitment, err := uow.CommitmentRepository().GetByIDForUpdate(ctx, bet.CommitmentID)
	if err != nil {
		return fmt.Errorf("failed to get commitment: %w", err)
	}
	if commitment == nil || !commitment.IsPending() {
		return fmt.Errorf("commitment is no longer pending: %w", ErrInvalidState)
	}

	balance, err := uow.BalanceRepository().Get(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		return fmt.Errorf("balance for user %d: %w", actorID, ErrNotFound)
	}

	if err := uow.BalanceRepository().Add(ctx, actorID, bet.Amount); err != nil {
		return fmt.Errorf("failed to refund stake: %w", err)
	}

	if err := uow.BetRepository().Delete(ctx, betID); err != nil {
		return fmt.Errorf("failed to delete bet: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          actorID,
		BalanceBefore:   balance.Balance,
		BalanceAfter:    balance.Balance + bet.Amount,
		ChangeAmount:    bet.Amount,
		TransactionType: models.TransactionTypeBetRefund,
		TransactionMetadata: map[string]any{
			"commitment_id": bet.CommitmentID,
			"bet_id":        bet.ID,
			"direction":     string(bet.Direction),
		},
		RelatedID:   &bet.ID,
		RelatedType: relatedTypePtr(models.RelatedTypeBet),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}

	uow.EventBus().Publish(events.BetCancelledEvent{
		BetID:        bet.ID,
		CommitmentID: bet.CommitmentID,
		BettorID:     bet.BettorID,
		Amount:       bet.Amount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListForCommitment returns all bets on a commitment in insertion order
func (s *betService) ListForCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetByCommitment(ctx, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	return bets, nil
}
