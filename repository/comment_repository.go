package repository

import (
	"context"
	"fmt"

	"commitcast/database"
	"commitcast/models"
	"github.com/jackc/pgx/v5"
)

// CommentRepository implements the service.CommentRepository interface
type CommentRepository struct {
	q queryable
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{q: db.Pool}
}

// newCommentRepositoryWithTx creates a new comment repository with a transaction
func newCommentRepositoryWithTx(tx queryable) *CommentRepository {
	return &CommentRepository{q: tx}
}

// Create inserts a new comment and fills in its assigned ID
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (commitment_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query, comment.CommitmentID, comment.UserID, comment.Content).
		Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment on commitment %d: %w", comment.CommitmentID, err)
	}

	return nil
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		SELECT id, commitment_id, user_id, content, created_at, updated_at
		FROM comments
		WHERE id = $1
	`

	var comment models.Comment
	err := r.q.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.CommitmentID,
		&comment.UserID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment %d: %w", id, err)
	}

	return &comment, nil
}

// GetByCommitment returns all comments on a commitment in creation order
func (r *CommentRepository) GetByCommitment(ctx context.Context, commitmentID int64) ([]*models.Comment, error) {
	query := `
		SELECT id, commitment_id, user_id, content, created_at, updated_at
		FROM comments
		WHERE commitment_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments for commitment %d: %w", commitmentID, err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.CommitmentID,
			&comment.UserID,
			&comment.Content,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// Delete removes a comment record
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("comment %d not found", id)
	}

	return nil
}

// DeleteByCommitment removes all comments on a commitment
func (r *CommentRepository) DeleteByCommitment(ctx context.Context, commitmentID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM comments WHERE commitment_id = $1`, commitmentID)
	if err != nil {
		return fmt.Errorf("failed to delete comments for commitment %d: %w", commitmentID, err)
	}

	return nil
}
