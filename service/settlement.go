package service

import (
	"context"
	"fmt"

	"commitcast/events"
	"commitcast/models"
)

// ComputePayouts partitions bets into winners and losers against the outcome
// and computes each bet's payout. The pot is the sum of losing stakes; each
// winner receives their stake back plus a pot share proportional to their
// stake, using integer arithmetic so the result does not depend on bet order.
// Truncation can leave a remainder of at most winners-1 units undistributed.
// A losing stake is forfeit even when nobody took the winning side; with no
// winners the pot simply goes undistributed.
func ComputePayouts(outcome models.CommitmentStatus, bets []*models.Bet) []models.BetPayout {
	var pot, totalWinnerStake int64
	for _, bet := range bets {
		if bet.Wins(outcome) {
			totalWinnerStake += bet.Amount
		} else {
			pot += bet.Amount
		}
	}

	payouts := make([]models.BetPayout, 0, len(bets))
	for _, bet := range bets {
		if bet.Wins(outcome) {
			share := (bet.Amount * pot) / totalWinnerStake
			payouts = append(payouts, models.BetPayout{
				Bet:    bet,
				Payout: bet.Amount + share,
				Won:    true,
			})
		} else {
			payouts = append(payouts, models.BetPayout{
				Bet:    bet,
				Payout: -bet.Amount,
				Won:    false,
			})
		}
	}
	return payouts
}

// settleBets settles all unresolved bets on a resolved commitment inside the
// caller's transaction. Winners are credited their payout; losing stakes
// were already debited at placement so losers get no ledger mutation. Every
// bet is marked resolved with its payout and each credit gets a payout
// history row. The caller must have flipped the commitment to a terminal
// status in the same transaction, which is what guarantees this runs at most
// once per commitment.
func settleBets(ctx context.Context, uow UnitOfWork, commitment *models.Commitment) (*models.SettlementResult, error) {
	if !commitment.IsResolved() {
		return nil, fmt.Errorf("cannot settle bets on commitment %d in status %s", commitment.ID, commitment.Status)
	}

	bets, err := uow.BetRepository().GetUnresolvedByCommitment(ctx, commitment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unresolved bets: %w", err)
	}

	result := &models.SettlementResult{
		Commitment: commitment,
	}
	if len(bets) == 0 {
		return result, nil
	}

	payouts := ComputePayouts(commitment.Status, bets)
	result.Payouts = payouts

	for _, bet := range bets {
		if bet.Wins(commitment.Status) {
			result.TotalWinnerStake += bet.Amount
			result.WinnerCount++
		} else {
			result.Pot += bet.Amount
			result.LoserCount++
		}
	}

	for _, entry := range payouts {
		bet := entry.Bet

		// Credit winners their stake plus share. Losers were debited at
		// placement; their negative payout is bookkeeping only.
		if entry.Payout > 0 {
			if err := uow.BalanceRepository().Add(ctx, bet.BettorID, entry.Payout); err != nil {
				return nil, fmt.Errorf("failed to credit bettor %d: %w", bet.BettorID, err)
			}

			balance, err := uow.BalanceRepository().Get(ctx, bet.BettorID)
			if err != nil {
				return nil, fmt.Errorf("failed to get bettor balance: %w", err)
			}

			history := &models.BalanceHistory{
				UserID:          bet.BettorID,
				BalanceBefore:   balance.Balance - entry.Payout,
				BalanceAfter:    balance.Balance,
				ChangeAmount:    entry.Payout,
				TransactionType: models.TransactionTypeBetPayout,
				TransactionMetadata: map[string]any{
					"commitment_id": commitment.ID,
					"bet_id":        bet.ID,
					"bet_amount":    bet.Amount,
					"direction":     string(bet.Direction),
					"outcome":       string(commitment.Status),
				},
				RelatedID:   &bet.ID,
				RelatedType: relatedTypePtr(models.RelatedTypeBet),
			}
			if err := RecordBalanceChange(ctx, uow, history); err != nil {
				return nil, fmt.Errorf("failed to record payout: %w", err)
			}
		}

		if err := uow.BetRepository().MarkResolved(ctx, bet.ID, entry.Payout); err != nil {
			return nil, fmt.Errorf("failed to mark bet %d resolved: %w", bet.ID, err)
		}
	}

	var distributed int64
	for _, entry := range payouts {
		if entry.Payout > 0 {
			distributed += entry.Payout
		}
	}

	uow.EventBus().Publish(events.CommitmentResolvedEvent{
		CommitmentID:     commitment.ID,
		OwnerID:          commitment.OwnerID,
		Outcome:          commitment.Status,
		BetsSettled:      len(bets),
		Pot:              result.Pot,
		TotalDistributed: distributed,
	})

	return result, nil
}
