package service

import (
	"context"
	"testing"

	"commitcast/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func makeBet(id, bettorID int64, direction models.BetDirection, amount int64) *models.Bet {
	return &models.Bet{
		ID:           id,
		CommitmentID: 1,
		BettorID:     bettorID,
		Direction:    direction,
		Amount:       amount,
	}
}

func TestComputePayouts(t *testing.T) {
	t.Run("proportional pot distribution", func(t *testing.T) {
		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillComplete, 100),
			makeBet(2, 11, models.BetDirectionWillComplete, 50),
			makeBet(3, 12, models.BetDirectionWillFail, 60),
		}

		payouts := ComputePayouts(models.CommitmentStatusCompleted, bets)
		require.Len(t, payouts, 3)

		// Pot is 60, winner stake is 150. 100/150 of the pot is 40,
		// 50/150 is 20.
		assert.Equal(t, int64(140), payouts[0].Payout)
		assert.True(t, payouts[0].Won)
		assert.Equal(t, int64(70), payouts[1].Payout)
		assert.True(t, payouts[1].Won)
		assert.Equal(t, int64(-60), payouts[2].Payout)
		assert.False(t, payouts[2].Won)
	})

	t.Run("failed outcome flips winners", func(t *testing.T) {
		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillComplete, 100),
			makeBet(2, 11, models.BetDirectionWillFail, 50),
		}

		payouts := ComputePayouts(models.CommitmentStatusFailed, bets)
		require.Len(t, payouts, 2)

		assert.Equal(t, int64(-100), payouts[0].Payout)
		assert.False(t, payouts[0].Won)
		assert.Equal(t, int64(150), payouts[1].Payout)
		assert.True(t, payouts[1].Won)
	})

	t.Run("expired settles like failed", func(t *testing.T) {
		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillFail, 25),
			makeBet(2, 11, models.BetDirectionWillComplete, 75),
		}

		payouts := ComputePayouts(models.CommitmentStatusExpired, bets)
		require.Len(t, payouts, 2)

		assert.Equal(t, int64(100), payouts[0].Payout)
		assert.Equal(t, int64(-75), payouts[1].Payout)
	})

	t.Run("no winners forfeits every losing stake", func(t *testing.T) {
		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillFail, 100),
			makeBet(2, 11, models.BetDirectionWillFail, 40),
		}

		payouts := ComputePayouts(models.CommitmentStatusCompleted, bets)
		require.Len(t, payouts, 2)

		assert.Equal(t, int64(-100), payouts[0].Payout)
		assert.False(t, payouts[0].Won)
		assert.Equal(t, int64(-40), payouts[1].Payout)
		assert.False(t, payouts[1].Won)
	})

	t.Run("sole loser pays their stake even with nobody to collect", func(t *testing.T) {
		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillComplete, 100),
		}

		payouts := ComputePayouts(models.CommitmentStatusFailed, bets)
		require.Len(t, payouts, 1)

		assert.Equal(t, int64(-100), payouts[0].Payout)
		assert.False(t, payouts[0].Won)
	})

	t.Run("no bets", func(t *testing.T) {
		payouts := ComputePayouts(models.CommitmentStatusCompleted, nil)
		assert.Empty(t, payouts)
	})

	t.Run("conservation with truncation", func(t *testing.T) {
		// Three winners with awkward stakes against a pot of 100. The
		// distributed total can fall short of stakes plus pot by at
		// most winners-1 units, and never exceed it.
		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillComplete, 33),
			makeBet(2, 11, models.BetDirectionWillComplete, 33),
			makeBet(3, 12, models.BetDirectionWillComplete, 34),
			makeBet(4, 13, models.BetDirectionWillFail, 100),
		}

		payouts := ComputePayouts(models.CommitmentStatusCompleted, bets)

		var distributed, staked int64
		for _, p := range payouts {
			if p.Payout > 0 {
				distributed += p.Payout
			}
		}
		for _, b := range bets {
			staked += b.Amount
		}

		assert.LessOrEqual(t, distributed, staked)
		assert.GreaterOrEqual(t, distributed, staked-int64(2))
	})

	t.Run("order independence", func(t *testing.T) {
		forward := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillComplete, 70),
			makeBet(2, 11, models.BetDirectionWillComplete, 30),
			makeBet(3, 12, models.BetDirectionWillFail, 55),
		}
		reversed := []*models.Bet{forward[2], forward[1], forward[0]}

		forwardPayouts := ComputePayouts(models.CommitmentStatusCompleted, forward)
		reversedPayouts := ComputePayouts(models.CommitmentStatusCompleted, reversed)

		byBet := make(map[int64]int64)
		for _, p := range forwardPayouts {
			byBet[p.Bet.ID] = p.Payout
		}
		for _, p := range reversedPayouts {
			assert.Equal(t, byBet[p.Bet.ID], p.Payout)
		}
	})
}

func TestSettleBets(t *testing.T) {
	ctx := context.Background()

	setup := func() (*MockUnitOfWork, *MockBalanceRepository, *MockBalanceHistoryRepository, *MockBetRepository) {
		mockUoW := new(MockUnitOfWork)
		mockBalanceRepo := new(MockBalanceRepository)
		mockHistoryRepo := new(MockBalanceHistoryRepository)
		mockBetRepo := new(MockBetRepository)
		mockUoW.SetRepositories(nil, mockBalanceRepo, mockHistoryRepo, nil, mockBetRepo, nil, nil)
		return mockUoW, mockBalanceRepo, mockHistoryRepo, mockBetRepo
	}

	t.Run("rejects unresolved commitment", func(t *testing.T) {
		mockUoW, _, _, _ := setup()
		commitment := &models.Commitment{ID: 1, Status: models.CommitmentStatusPending}

		_, err := settleBets(ctx, mockUoW, commitment)
		assert.Error(t, err)
	})

	t.Run("no unresolved bets is a no-op", func(t *testing.T) {
		mockUoW, _, _, mockBetRepo := setup()
		commitment := &models.Commitment{ID: 1, Status: models.CommitmentStatusCompleted}
		mockBetRepo.On("GetUnresolvedByCommitment", mock.Anything, int64(1)).Return([]*models.Bet{}, nil)

		result, err := settleBets(ctx, mockUoW, commitment)
		require.NoError(t, err)
		assert.Empty(t, result.Payouts)
	})

	t.Run("credits winners and marks every bet resolved", func(t *testing.T) {
		mockUoW, mockBalanceRepo, mockHistoryRepo, mockBetRepo := setup()
		commitment := &models.Commitment{ID: 1, OwnerID: 5, Status: models.CommitmentStatusCompleted}

		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillComplete, 100),
			makeBet(2, 11, models.BetDirectionWillComplete, 50),
			makeBet(3, 12, models.BetDirectionWillFail, 60),
		}
		mockBetRepo.On("GetUnresolvedByCommitment", mock.Anything, int64(1)).Return(bets, nil)

		// Only winners touch the ledger.
		mockBalanceRepo.On("Add", mock.Anything, int64(10), int64(140)).Return(nil)
		mockBalanceRepo.On("Get", mock.Anything, int64(10)).Return(&models.Balance{UserID: 10, Balance: 540}, nil)
		mockBalanceRepo.On("Add", mock.Anything, int64(11), int64(70)).Return(nil)
		mockBalanceRepo.On("Get", mock.Anything, int64(11)).Return(&models.Balance{UserID: 11, Balance: 520}, nil)

		mockHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *models.BalanceHistory) bool {
			return h.TransactionType == models.TransactionTypeBetPayout
		})).Return(nil)

		mockBetRepo.On("MarkResolved", mock.Anything, int64(1), int64(140)).Return(nil)
		mockBetRepo.On("MarkResolved", mock.Anything, int64(2), int64(70)).Return(nil)
		mockBetRepo.On("MarkResolved", mock.Anything, int64(3), int64(-60)).Return(nil)

		result, err := settleBets(ctx, mockUoW, commitment)
		require.NoError(t, err)

		assert.Equal(t, int64(60), result.Pot)
		assert.Equal(t, int64(150), result.TotalWinnerStake)
		assert.Equal(t, 2, result.WinnerCount)
		assert.Equal(t, 1, result.LoserCount)

		mockBalanceRepo.AssertExpectations(t)
		mockBetRepo.AssertExpectations(t)
		mockHistoryRepo.AssertNumberOfCalls(t, "Record", 2)
	})

	t.Run("no credit issued when nobody won", func(t *testing.T) {
		mockUoW, mockBalanceRepo, mockHistoryRepo, mockBetRepo := setup()
		commitment := &models.Commitment{ID: 1, OwnerID: 5, Status: models.CommitmentStatusCompleted}

		bets := []*models.Bet{
			makeBet(1, 10, models.BetDirectionWillFail, 80),
		}
		mockBetRepo.On("GetUnresolvedByCommitment", mock.Anything, int64(1)).Return(bets, nil)
		mockBetRepo.On("MarkResolved", mock.Anything, int64(1), int64(-80)).Return(nil)

		_, err := settleBets(ctx, mockUoW, commitment)
		require.NoError(t, err)

		mockBalanceRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
		mockHistoryRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		mockBetRepo.AssertExpectations(t)
	})
}
