package repository

import (
	"context"
	"fmt"

	"commitcast/database"
	"commitcast/models"
	"commitcast/service"
	"github.com/jackc/pgx/v5"
)

// BalanceRepository implements the service.BalanceRepository interface
type BalanceRepository struct {
	q queryable
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *database.DB) *BalanceRepository {
	return &BalanceRepository{q: db.Pool}
}

// newBalanceRepositoryWithTx creates a new balance repository with a transaction
func newBalanceRepositoryWithTx(tx queryable) *BalanceRepository {
	return &BalanceRepository{q: tx}
}

// Get retrieves a user's balance record
func (r *BalanceRepository) Get(ctx context.Context, userID int64) (*models.Balance, error) {
	query := `
		SELECT user_id, balance, updated_at
		FROM balances
		WHERE user_id = $1
	`

	var balance models.Balance
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&balance.UserID,
		&balance.Balance,
		&balance.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}

	return &balance, nil
}

// Create creates the balance record with the initial grant
func (r *BalanceRepository) Create(ctx context.Context, userID int64, initial int64) (*models.Balance, error) {
	query := `
		INSERT INTO balances (user_id, balance)
		VALUES ($1, $2)
		RETURNING user_id, balance, updated_at
	`

	var balance models.Balance
	err := r.q.QueryRow(ctx, query, userID, initial).Scan(
		&balance.UserID,
		&balance.Balance,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance for user %d: %w", userID, err)
	}

	return &balance, nil
}

// Add credits a user's balance atomically
func (r *BalanceRepository) Add(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE balances
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("balance record for user %d not found", userID)
	}

	return nil
}

// Deduct debits a user's balance atomically. The conditional update means a
// debit that would drive the balance negative affects zero rows and fails
// here, before any write.
func (r *BalanceRepository) Deduct(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE balances
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		balance, err := r.Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check balance: %w", err)
		}
		if balance == nil {
			return fmt.Errorf("balance record for user %d not found", userID)
		}
		return fmt.Errorf("insufficient balance: have %d, need %d: %w", balance.Balance, amount, service.ErrInsufficientFunds)
	}

	return nil
}
