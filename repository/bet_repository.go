package repository

import (
	"context"
	"fmt"

	"commitcast/database"
	"commitcast/models"
	"github.com/jackc/pgx/v5"
)

// BetRepository implements the service.BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create inserts a new bet and fills in its assigned ID
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (commitment_id, bettor_id, direction, amount, resolved)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.CommitmentID,
		bet.BettorID,
		bet.Direction,
		bet.Amount,
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet on commitment %d: %w", bet.CommitmentID, err)
	}

	return nil
}

// GetByID retrieves a bet by ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `
		SELECT id, commitment_id, bettor_id, direction, amount, resolved, payout, created_at
		FROM bets
		WHERE id = $1
	`

	var bet models.Bet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&bet.ID,
		&bet.CommitmentID,
		&bet.BettorID,
		&bet.Direction,
		&bet.Amount,
		&bet.Resolved,
		&bet.Payout,
		&bet.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}

	return &bet, nil
}

// GetByCommitment returns all bets on a commitment in insertion order
func (r *BetRepository) GetByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error) {
	query := `
		SELECT id, commitment_id, bettor_id, direction, amount, resolved, payout, created_at
		FROM bets
		WHERE commitment_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for commitment %d: %w", commitmentID, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// GetUnresolvedByCommitment returns unresolved bets on a commitment in insertion order
func (r *BetRepository) GetUnresolvedByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error) {
	query := `
		SELECT id, commitment_id, bettor_id, direction, amount, resolved, payout, created_at
		FROM bets
		WHERE commitment_id = $1 AND resolved = FALSE
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unresolved bets for commitment %d: %w", commitmentID, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func collectBets(rows pgx.Rows) ([]*models.Bet, error) {
	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.CommitmentID,
			&bet.BettorID,
			&bet.Direction,
			&bet.Amount,
			&bet.Resolved,
			&bet.Payout,
			&bet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// MarkResolved records the payout and resolved flag for a settled bet.
// The WHERE resolved = FALSE guard means a bet can be settled at most once.
func (r *BetRepository) MarkResolved(ctx context.Context, betID int64, payout int64) error {
	query := `
		UPDATE bets
		SET resolved = TRUE, payout = $1
		WHERE id = $2 AND resolved = FALSE
	`

	result, err := r.q.Exec(ctx, query, payout, betID)
	if err != nil {
		return fmt.Errorf("failed to resolve bet %d: %w", betID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found or already resolved", betID)
	}

	return nil
}

// Delete removes an unresolved bet record
func (r *BetRepository) Delete(ctx context.Context, betID int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM bets WHERE id = $1 AND resolved = FALSE`, betID)
	if err != nil {
		return fmt.Errorf("failed to delete bet %d: %w", betID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found or already resolved", betID)
	}

	return nil
}

// CountByCommitment counts all bets, resolved or not, on a commitment
func (r *BetRepository) CountByCommitment(ctx context.Context, commitmentID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM bets WHERE commitment_id = $1`, commitmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bets for commitment %d: %w", commitmentID, err)
	}

	return count, nil
}
