package repository

import (
	"context"
	"fmt"
	"time"

	"commitcast/database"
	"commitcast/models"
	"commitcast/service"
	"github.com/jackc/pgx/v5"
)

// CommitmentRepository implements the service.CommitmentRepository interface
type CommitmentRepository struct {
	q queryable
}

// NewCommitmentRepository creates a new commitment repository
func NewCommitmentRepository(db *database.DB) *CommitmentRepository {
	return &CommitmentRepository{q: db.Pool}
}

// newCommitmentRepositoryWithTx creates a new commitment repository with a transaction
func newCommitmentRepositoryWithTx(tx queryable) *CommitmentRepository {
	return &CommitmentRepository{q: tx}
}

const commitmentColumns = `
	id, public_code, owner_id, title, description, category, deadline,
	visibility, status, prediction_probability, prediction_explanation,
	confidence_label, completion_report, evidence_url, resolved_at,
	created_at, updated_at
`

func scanCommitment(row pgx.Row) (*models.Commitment, error) {
	var c models.Commitment
	err := row.Scan(
		&c.ID,
		&c.PublicCode,
		&c.OwnerID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.Deadline,
		&c.Visibility,
		&c.Status,
		&c.PredictionProbability,
		&c.PredictionExplanation,
		&c.ConfidenceLabel,
		&c.CompletionReport,
		&c.EvidenceURL,
		&c.ResolvedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new commitment and fills in its assigned ID
func (r *CommitmentRepository) Create(ctx context.Context, commitment *models.Commitment) error {
	query := `
		INSERT INTO commitments (public_code, owner_id, title, description, category, deadline, visibility, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		commitment.PublicCode,
		commitment.OwnerID,
		commitment.Title,
		commitment.Description,
		commitment.Category,
		commitment.Deadline,
		commitment.Visibility,
		commitment.Status,
	).Scan(&commitment.ID, &commitment.CreatedAt, &commitment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create commitment %q: %w", commitment.Title, err)
	}

	return nil
}

// GetByID retrieves a commitment by internal ID
func (r *CommitmentRepository) GetByID(ctx context.Context, id int64) (*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE id = $1`

	commitment, err := scanCommitment(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment %d: %w", id, err)
	}

	return commitment, nil
}

// GetByIDForUpdate retrieves a commitment by ID with a row lock for update
func (r *CommitmentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE id = $1 FOR UPDATE`

	commitment, err := scanCommitment(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment for update %d: %w", id, err)
	}

	return commitment, nil
}

// GetByPublicCode retrieves a commitment by its public code
func (r *CommitmentRepository) GetByPublicCode(ctx context.Context, code string) (*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE public_code = $1`

	commitment, err := scanCommitment(r.q.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment by code %s: %w", code, err)
	}

	return commitment, nil
}

// PublicCodeExists checks whether a public code is already taken
func (r *CommitmentRepository) PublicCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM commitments WHERE public_code = $1)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check public code %s: %w", code, err)
	}

	return exists, nil
}

// GetByOwner returns all commitments owned by a user, newest first
func (r *CommitmentRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commitments for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	return collectCommitments(rows)
}

// GetPublic returns up to limit public commitments, newest first
func (r *CommitmentRepository) GetPublic(ctx context.Context, limit int) ([]*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE visibility = 'public' ORDER BY created_at DESC LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get public commitments: %w", err)
	}
	defer rows.Close()

	return collectCommitments(rows)
}

func collectCommitments(rows pgx.Rows) ([]*models.Commitment, error) {
	var commitments []*models.Commitment
	for rows.Next() {
		commitment, err := scanCommitment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commitment: %w", err)
		}
		commitments = append(commitments, commitment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commitments: %w", err)
	}
	return commitments, nil
}

// UpdatePrediction persists the AI prediction fields
func (r *CommitmentRepository) UpdatePrediction(ctx context.Context, id int64, probability float64, explanation string, confidence models.ConfidenceLabel) error {
	query := `
		UPDATE commitments
		SET prediction_probability = $1, prediction_explanation = $2, confidence_label = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, probability, explanation, confidence, id)
	if err != nil {
		return fmt.Errorf("failed to update prediction for commitment %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("commitment %d not found", id)
	}

	return nil
}

// MarkResolved flips a pending commitment to the given terminal status.
// The WHERE status = 'pending' guard makes the flip atomic with respect to
// concurrent resolutions and to bet placements that re-check the status
// inside their own transaction.
func (r *CommitmentRepository) MarkResolved(ctx context.Context, id int64, status models.CommitmentStatus, report, evidence *string, resolvedAt time.Time) (bool, error) {
	query := `
		UPDATE commitments
		SET status = $1, completion_report = $2, evidence_url = $3, resolved_at = $4, updated_at = NOW()
		WHERE id = $5 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, report, evidence, resolvedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to resolve commitment %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes a commitment record
func (r *CommitmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM commitments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete commitment %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("commitment %d not found", id)
	}

	return nil
}

// StatusCounts returns commitment counts per status for an owner
func (r *CommitmentRepository) StatusCounts(ctx context.Context, ownerID int64) (service.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM commitments
		WHERE owner_id = $1
	`

	var counts service.StatusCounts
	err := r.q.QueryRow(ctx, query, ownerID).Scan(&counts.Completed, &counts.Failed, &counts.Pending)
	if err != nil {
		return counts, fmt.Errorf("failed to count commitments for owner %d: %w", ownerID, err)
	}

	return counts, nil
}
