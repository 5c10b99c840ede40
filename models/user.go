package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Balance is the single ledger record owned by a user
type Balance struct {
	UserID    int64     `db:"user_id"`
	Balance   int64     `db:"balance"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UserStats summarizes a user's commitment track record
type UserStats struct {
	DisplayName    string
	Email          string
	CompletedCount int
	FailedCount    int
	PendingCount   int
	SuccessRate    float64
	Balance        int64
}
