package repository

import (
	"context"
	"fmt"

	"commitcast/database"
	"commitcast/models"
)

// MessageRepository implements the service.MessageRepository interface for
// both the Q&A context log and the coaching log.
type MessageRepository struct {
	q queryable
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{q: db.Pool}
}

// newMessageRepositoryWithTx creates a new message repository with a transaction
func newMessageRepositoryWithTx(tx queryable) *MessageRepository {
	return &MessageRepository{q: tx}
}

// CreateContext appends a context message to a commitment's Q&A log
func (r *MessageRepository) CreateContext(ctx context.Context, msg *models.ContextMessage) error {
	query := `
		INSERT INTO context_messages (commitment_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, msg.CommitmentID, msg.Role, msg.Content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create context message for commitment %d: %w", msg.CommitmentID, err)
	}

	return nil
}

// ListContext returns a commitment's Q&A log in creation order
func (r *MessageRepository) ListContext(ctx context.Context, commitmentID int64) ([]*models.ContextMessage, error) {
	query := `
		SELECT id, commitment_id, role, content, created_at
		FROM context_messages
		WHERE commitment_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list context messages for commitment %d: %w", commitmentID, err)
	}
	defer rows.Close()

	var messages []*models.ContextMessage
	for rows.Next() {
		var msg models.ContextMessage
		if err := rows.Scan(&msg.ID, &msg.CommitmentID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan context message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate context messages: %w", err)
	}

	return messages, nil
}

// CreateCoaching appends a coaching message to a commitment
func (r *MessageRepository) CreateCoaching(ctx context.Context, msg *models.CoachingMessage) error {
	query := `
		INSERT INTO coaching_messages (commitment_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, msg.CommitmentID, msg.Role, msg.Content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coaching message for commitment %d: %w", msg.CommitmentID, err)
	}

	return nil
}

// ListCoaching returns a commitment's coaching messages in creation order
func (r *MessageRepository) ListCoaching(ctx context.Context, commitmentID int64) ([]*models.CoachingMessage, error) {
	query := `
		SELECT id, commitment_id, role, content, created_at
		FROM coaching_messages
		WHERE commitment_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coaching messages for commitment %d: %w", commitmentID, err)
	}
	defer rows.Close()

	var messages []*models.CoachingMessage
	for rows.Next() {
		var msg models.CoachingMessage
		if err := rows.Scan(&msg.ID, &msg.CommitmentID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coaching message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coaching messages: %w", err)
	}

	return messages, nil
}

// DeleteByCommitment removes all context and coaching messages for a commitment
func (r *MessageRepository) DeleteByCommitment(ctx context.Context, commitmentID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM context_messages WHERE commitment_id = $1`, commitmentID); err != nil {
		return fmt.Errorf("failed to delete context messages for commitment %d: %w", commitmentID, err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM coaching_messages WHERE commitment_id = $1`, commitmentID); err != nil {
		return fmt.Errorf("failed to delete coaching messages for commitment %d: %w", commitmentID, err)
	}

	return nil
}
