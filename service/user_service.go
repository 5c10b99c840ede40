package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"commitcast/events"
	"commitcast/models"
)

// userService implements the UserService interface
type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance int64) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// Register creates a new account, its ledger record with the initial grant,
// and the initial balance history row in a single transaction.
func (s *userService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("email is invalid: %w", ErrInvalidInput)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("display name cannot be empty: %w", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := uow.BalanceRepository().Create(ctx, user.ID, s.startingBalance); err != nil {
		return nil, fmt.Errorf("failed to create balance: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          user.ID,
		BalanceBefore:   0,
		BalanceAfter:    s.startingBalance,
		ChangeAmount:    s.startingBalance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"email": email,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:         user.ID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		InitialBalance: s.startingBalance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// Authenticate verifies credentials and returns the account
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrForbidden)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	return user, nil
}

// GetBalance returns a user's current balance
func (s *userService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	balance, err := uow.BalanceRepository().Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		return 0, fmt.Errorf("balance for user %d: %w", userID, ErrNotFound)
	}

	return balance.Balance, nil
}

// GetStats returns a user's commitment statistics alongside their balance
func (s *userService) GetStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	counts, err := uow.CommitmentRepository().StatusCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}

	balance, err := uow.BalanceRepository().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	stats := &models.UserStats{
		DisplayName:    user.DisplayName,
		Email:          user.Email,
		CompletedCount: counts.Completed,
		FailedCount:    counts.Failed,
		PendingCount:   counts.Pending,
		SuccessRate:    counts.SuccessRate(),
	}
	if balance != nil {
		stats.Balance = balance.Balance
	}

	return stats, nil
}
