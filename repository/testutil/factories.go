package testutil

import (
	"fmt"
	"time"

	"commitcast/models"
)

// CreateTestUser creates a test user with default values. The password hash
// is a bcrypt digest of "password" at min cost, good enough for fixtures.
func CreateTestUser(email, displayName string) *models.User {
	return &models.User{
		Email:        email,
		PasswordHash: "$2a$04$zHkDhq2TPYPUzhHWv6wPGOXRNEC9nLbJ3m3S5q0hYQhXZ6oJ9B1eG",
		DisplayName:  displayName,
	}
}

// CreateTestCommitment creates a pending test commitment owned by the given
// user, with a deadline comfortably in the future.
func CreateTestCommitment(ownerID int64, publicCode string) *models.Commitment {
	return &models.Commitment{
		PublicCode: publicCode,
		OwnerID:    ownerID,
		Title:      "Finish the test suite",
		Category:   "personal",
		Deadline:   time.Now().Add(72 * time.Hour).Truncate(time.Second),
		Visibility: models.VisibilityPublic,
		Status:     models.CommitmentStatusPending,
	}
}

// CreateTestBet creates an unresolved test bet
func CreateTestBet(commitmentID, bettorID int64, direction models.BetDirection, amount int64) *models.Bet {
	return &models.Bet{
		CommitmentID: commitmentID,
		BettorID:     bettorID,
		Direction:    direction,
		Amount:       amount,
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(userID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   500,
		BalanceAfter:    400,
		ChangeAmount:    -100,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}

// UniqueEmail returns an email unlikely to collide across subtests
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
