package models

import (
	"time"
)

// CommitmentStatus represents the lifecycle state of a commitment
type CommitmentStatus string

const (
	CommitmentStatusPending   CommitmentStatus = "pending"
	CommitmentStatusCompleted CommitmentStatus = "completed"
	CommitmentStatusFailed    CommitmentStatus = "failed"
	CommitmentStatusExpired   CommitmentStatus = "expired"
)

// Visibility controls who can view a commitment
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ConfidenceLabel qualifies an AI prediction
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// Commitment represents a public goal with a deadline that others can bet on
type Commitment struct {
	ID          int64            `db:"id"`
	PublicCode  string           `db:"public_code"`
	OwnerID     int64            `db:"owner_id"`
	Title       string           `db:"title"`
	Description *string          `db:"description"`
	Category    string           `db:"category"`
	Deadline    time.Time        `db:"deadline"`
	Visibility  Visibility       `db:"visibility"`
	Status      CommitmentStatus `db:"status"`

	// AI prediction fields, set after the owner runs a prediction
	PredictionProbability *float64         `db:"prediction_probability"`
	PredictionExplanation *string          `db:"prediction_explanation"`
	ConfidenceLabel       *ConfidenceLabel `db:"confidence_label"`

	// Resolution fields, set when the owner resolves the commitment
	CompletionReport *string    `db:"completion_report"`
	EvidenceURL      *string    `db:"evidence_url"`
	ResolvedAt       *time.Time `db:"resolved_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsPending checks if the commitment is still open
func (c *Commitment) IsPending() bool {
	return c.Status == CommitmentStatusPending
}

// IsResolved checks if the commitment reached a terminal state
func (c *Commitment) IsResolved() bool {
	switch c.Status {
	case CommitmentStatusCompleted, CommitmentStatusFailed, CommitmentStatusExpired:
		return true
	}
	return false
}

// IsOwner checks if the given user owns this commitment
func (c *Commitment) IsOwner(userID int64) bool {
	return c.OwnerID == userID
}

// CanAcceptBets checks if the commitment can still accept bets at the given time
func (c *Commitment) CanAcceptBets(now time.Time) bool {
	return c.IsPending() && now.Before(c.Deadline)
}

// VisibleTo checks if the given user may view this commitment. A zero userID
// means an unauthenticated viewer.
func (c *Commitment) VisibleTo(userID int64) bool {
	if c.Visibility == VisibilityPublic {
		return true
	}
	return c.OwnerID == userID
}

// DaysUntilDeadline returns whole days from now to the deadline, floored at zero
func (c *Commitment) DaysUntilDeadline(now time.Time) int {
	days := int(c.Deadline.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
