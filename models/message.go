package models

import (
	"time"
)

// MessageRole identifies who authored a context message
type MessageRole string

const (
	MessageRoleSystem MessageRole = "system"
	MessageRoleAI     MessageRole = "ai"
	MessageRoleUser   MessageRole = "user"
)

// ContextMessage stores one turn of the Q&A dialogue attached to a commitment
type ContextMessage struct {
	ID           int64       `db:"id"`
	CommitmentID int64       `db:"commitment_id"`
	Role         MessageRole `db:"role"`
	Content      string      `db:"content"`
	CreatedAt    time.Time   `db:"created_at"`
}

// CoachingMessage stores a post-resolution reflection attached to a commitment
type CoachingMessage struct {
	ID           int64       `db:"id"`
	CommitmentID int64       `db:"commitment_id"`
	Role         MessageRole `db:"role"`
	Content      string      `db:"content"`
	CreatedAt    time.Time   `db:"created_at"`
}

// Comment is a user remark on a commitment
type Comment struct {
	ID           int64     `db:"id"`
	CommitmentID int64     `db:"commitment_id"`
	UserID       int64     `db:"user_id"`
	Content      string    `db:"content"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
