package service

import (
	"context"
	"time"

	"commitcast/events"
	"commitcast/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user and fills in its assigned ID
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email, nil if not found
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// BalanceRepository defines the interface for the ledger store
type BalanceRepository interface {
	// Get retrieves a user's balance record, nil if not found
	Get(ctx context.Context, userID int64) (*models.Balance, error)

	// Create creates the balance record with the initial grant
	Create(ctx context.Context, userID int64, initial int64) (*models.Balance, error)

	// Add credits a user's balance atomically
	Add(ctx context.Context, userID int64, amount int64) error

	// Deduct debits a user's balance atomically, failing with
	// ErrInsufficientFunds if the balance cannot cover the amount
	Deduct(ctx context.Context, userID int64, amount int64) error
}

// BalanceHistoryRepository defines the interface for balance audit records
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// StatusCounts holds per-status commitment counts for one owner
type StatusCounts struct {
	Completed int
	Failed    int
	Pending   int
}

// SuccessRate returns completed/(completed+failed), or 0.5 when nothing
// has been resolved yet.
func (c StatusCounts) SuccessRate() float64 {
	resolved := c.Completed + c.Failed
	if resolved == 0 {
		return 0.5
	}
	return float64(c.Completed) / float64(resolved)
}

// CommitmentRepository defines the interface for commitment data access
type CommitmentRepository interface {
	// Create inserts a new commitment and fills in its assigned ID
	Create(ctx context.Context, commitment *models.Commitment) error

	// GetByID retrieves a commitment by internal ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.Commitment, error)

	// GetByIDForUpdate retrieves a commitment by ID with a row lock,
	// serializing against concurrent status transitions
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Commitment, error)

	// GetByPublicCode retrieves a commitment by its public code, nil if not found
	GetByPublicCode(ctx context.Context, code string) (*models.Commitment, error)

	// PublicCodeExists checks whether a public code is already taken
	PublicCodeExists(ctx context.Context, code string) (bool, error)

	// GetByOwner returns all commitments owned by a user
	GetByOwner(ctx context.Context, ownerID int64) ([]*models.Commitment, error)

	// GetPublic returns up to limit public commitments, newest first
	GetPublic(ctx context.Context, limit int) ([]*models.Commitment, error)

	// UpdatePrediction persists the AI prediction fields
	UpdatePrediction(ctx context.Context, id int64, probability float64, explanation string, confidence models.ConfidenceLabel) error

	// MarkResolved flips a pending commitment to the given terminal status.
	// Returns false without error if the commitment was not pending, which
	// serializes concurrent resolutions and bet placements on the status column.
	MarkResolved(ctx context.Context, id int64, status models.CommitmentStatus, report, evidence *string, resolvedAt time.Time) (bool, error)

	// Delete removes a commitment record
	Delete(ctx context.Context, id int64) error

	// StatusCounts returns commitment counts per status for an owner
	StatusCounts(ctx context.Context, ownerID int64) (StatusCounts, error)
}

// BetRepository defines the interface for wager data access
type BetRepository interface {
	// Create inserts a new bet and fills in its assigned ID
	Create(ctx context.Context, bet *models.Bet) error

	// GetByID retrieves a bet by ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetByCommitment returns all bets on a commitment in insertion order
	GetByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error)

	// GetUnresolvedByCommitment returns unresolved bets on a commitment in insertion order
	GetUnresolvedByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error)

	// MarkResolved records the payout and resolved flag for a settled bet
	MarkResolved(ctx context.Context, betID int64, payout int64) error

	// Delete removes an unresolved bet record
	Delete(ctx context.Context, betID int64) error

	// CountByCommitment counts all bets, resolved or not, on a commitment
	CountByCommitment(ctx context.Context, commitmentID int64) (int, error)
}

// MessageRepository defines the interface for Q&A context and coaching logs
type MessageRepository interface {
	// CreateContext appends a context message to a commitment's Q&A log
	CreateContext(ctx context.Context, msg *models.ContextMessage) error

	// ListContext returns a commitment's Q&A log in creation order
	ListContext(ctx context.Context, commitmentID int64) ([]*models.ContextMessage, error)

	// CreateCoaching appends a coaching message to a commitment
	CreateCoaching(ctx context.Context, msg *models.CoachingMessage) error

	// ListCoaching returns a commitment's coaching messages in creation order
	ListCoaching(ctx context.Context, commitmentID int64) ([]*models.CoachingMessage, error)

	// DeleteByCommitment removes all context and coaching messages for a commitment
	DeleteByCommitment(ctx context.Context, commitmentID int64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create inserts a new comment and fills in its assigned ID
	Create(ctx context.Context, comment *models.Comment) error

	// GetByID retrieves a comment by ID, nil if not found
	GetByID(ctx context.Context, id int64) (*models.Comment, error)

	// GetByCommitment returns all comments on a commitment in creation order
	GetByCommitment(ctx context.Context, commitmentID int64) ([]*models.Comment, error)

	// Delete removes a comment record
	Delete(ctx context.Context, id int64) error

	// DeleteByCommitment removes all comments on a commitment
	DeleteByCommitment(ctx context.Context, commitmentID int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceRepository() BalanceRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	CommitmentRepository() CommitmentRepository
	BetRepository() BetRepository
	MessageRepository() MessageRepository
	CommentRepository() CommentRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService defines the interface for account and ledger operations
type UserService interface {
	// Register creates a new account with its initial balance grant
	Register(ctx context.Context, email, password, displayName string) (*models.User, error)

	// Authenticate verifies credentials and returns the user
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// GetBalance returns a user's current balance
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// GetStats returns a user's commitment statistics and balance
	GetStats(ctx context.Context, userID int64) (*models.UserStats, error)
}

// CommitmentService defines the interface for the commitment lifecycle
type CommitmentService interface {
	// Create publishes a new commitment with a fresh public code
	Create(ctx context.Context, ownerID int64, title, description, category string, deadline time.Time, visibility models.Visibility) (*models.Commitment, error)

	// Get retrieves a commitment, enforcing visibility for the viewer
	Get(ctx context.Context, commitmentID int64, viewerID int64) (*models.Commitment, error)

	// GetByPublicCode retrieves a commitment by its shareable code
	GetByPublicCode(ctx context.Context, code string, viewerID int64) (*models.Commitment, error)

	// ListMine returns all commitments owned by the user
	ListMine(ctx context.Context, ownerID int64) ([]*models.Commitment, error)

	// ListPublic returns recent public commitments
	ListPublic(ctx context.Context, limit int) ([]*models.Commitment, error)

	// Resolve transitions a pending commitment to completed or failed and
	// settles all outstanding bets exactly once
	Resolve(ctx context.Context, commitmentID, actorID int64, completed bool, report, evidence *string) (*models.Commitment, error)

	// Delete removes a pending commitment that has no bets
	Delete(ctx context.Context, commitmentID, actorID int64) error
}

// BetService defines the interface for the wager book
type BetService interface {
	// Place stakes currency on a commitment's outcome
	Place(ctx context.Context, commitmentID, bettorID int64, direction models.BetDirection, amount int64) (*models.Bet, error)

	// Cancel reverses an unresolved bet and refunds the stake
	Cancel(ctx context.Context, betID, actorID int64) error

	// ListForCommitment returns all bets on a commitment in insertion order
	ListForCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error)
}

// AdvisorService defines the interface for AI-assisted commitment refinement
type AdvisorService interface {
	// GenerateQuestions asks the prediction adapter for clarifying questions
	// and records them in the commitment's Q&A log
	GenerateQuestions(ctx context.Context, commitmentID, actorID int64) ([]string, error)

	// SubmitAnswer records the owner's answer in the Q&A log
	SubmitAnswer(ctx context.Context, commitmentID, actorID int64, answer string) error

	// Predict produces and persists a completion-probability estimate
	Predict(ctx context.Context, commitmentID, actorID int64) (*models.Commitment, error)

	// ListContext returns the commitment's Q&A log
	ListContext(ctx context.Context, commitmentID, viewerID int64) ([]*models.ContextMessage, error)

	// ListCoaching returns the commitment's coaching messages
	ListCoaching(ctx context.Context, commitmentID, viewerID int64) ([]*models.CoachingMessage, error)
}

// CommentService defines the interface for commitment comments
type CommentService interface {
	// Add attaches a comment to a commitment
	Add(ctx context.Context, commitmentID, userID int64, content string) (*models.Comment, error)

	// List returns all comments on a commitment in creation order
	List(ctx context.Context, commitmentID int64) ([]*models.Comment, error)

	// Delete removes a comment; only its author may do so
	Delete(ctx context.Context, commentID, actorID int64) error
}
