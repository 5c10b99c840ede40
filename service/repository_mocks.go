package service

import (
	"context"
	"time"

	"commitcast/events"
	"commitcast/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockBalanceRepository is a mock implementation of BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Get(ctx context.Context, userID int64) (*models.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Create(ctx context.Context, userID int64, initial int64) (*models.Balance, error) {
	args := m.Called(ctx, userID, initial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Add(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockBalanceRepository) Deduct(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockCommitmentRepository is a mock implementation of CommitmentRepository
type MockCommitmentRepository struct {
	mock.Mock
}

func (m *MockCommitmentRepository) Create(ctx context.Context, commitment *models.Commitment) error {
	args := m.Called(ctx, commitment)
	return args.Error(0)
}

func (m *MockCommitmentRepository) GetByID(ctx context.Context, id int64) (*models.Commitment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Commitment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) GetByPublicCode(ctx context.Context, code string) (*models.Commitment, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) PublicCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommitmentRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Commitment, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) GetPublic(ctx context.Context, limit int) ([]*models.Commitment, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commitment), args.Error(1)
}

func (m *MockCommitmentRepository) UpdatePrediction(ctx context.Context, id int64, probability float64, explanation string, confidence models.ConfidenceLabel) error {
	args := m.Called(ctx, id, probability, explanation, confidence)
	return args.Error(0)
}

func (m *MockCommitmentRepository) MarkResolved(ctx context.Context, id int64, status models.CommitmentStatus, report, evidence *string, resolvedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, status, report, evidence, resolvedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommitmentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommitmentRepository) StatusCounts(ctx context.Context, ownerID int64) (StatusCounts, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(StatusCounts), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, commitmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetUnresolvedByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, commitmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) MarkResolved(ctx context.Context, betID int64, payout int64) error {
	args := m.Called(ctx, betID, payout)
	return args.Error(0)
}

func (m *MockBetRepository) Delete(ctx context.Context, betID int64) error {
	args := m.Called(ctx, betID)
	return args.Error(0)
}

func (m *MockBetRepository) CountByCommitment(ctx context.Context, commitmentID int64) (int, error) {
	args := m.Called(ctx, commitmentID)
	return args.Int(0), args.Error(1)
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateContext(ctx context.Context, msg *models.ContextMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListContext(ctx context.Context, commitmentID int64) ([]*models.ContextMessage, error) {
	args := m.Called(ctx, commitmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ContextMessage), args.Error(1)
}

func (m *MockMessageRepository) CreateCoaching(ctx context.Context, msg *models.CoachingMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListCoaching(ctx context.Context, commitmentID int64) ([]*models.CoachingMessage, error) {
	args := m.Called(ctx, commitmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CoachingMessage), args.Error(1)
}

func (m *MockMessageRepository) DeleteByCommitment(ctx context.Context, commitmentID int64) error {
	args := m.Called(ctx, commitmentID)
	return args.Error(0)
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) GetByCommitment(ctx context.Context, commitmentID int64) ([]*models.Comment, error) {
	args := m.Called(ctx, commitmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommentRepository) DeleteByCommitment(ctx context.Context, commitmentID int64) error {
	args := m.Called(ctx, commitmentID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopEventPublisher swallows events for tests that don't assert on them
type noopEventPublisher struct{}

func (noopEventPublisher) Publish(event events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Transaction calls
// go through testify; the repository getters return whatever was wired in
// with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock

	userRepo           UserRepository
	balanceRepo        BalanceRepository
	balanceHistoryRepo BalanceHistoryRepository
	commitmentRepo     CommitmentRepository
	betRepo            BetRepository
	messageRepo        MessageRepository
	commentRepo        CommentRepository
	eventBus           EventPublisher
}

// SetRepositories wires mock repositories into the unit of work. Nil slots
// are fine for tests that never touch them. When no event bus is set, a
// no-op publisher is used.
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	balanceRepo BalanceRepository,
	balanceHistoryRepo BalanceHistoryRepository,
	commitmentRepo CommitmentRepository,
	betRepo BetRepository,
	messageRepo MessageRepository,
	commentRepo CommentRepository,
) {
	m.userRepo = userRepo
	m.balanceRepo = balanceRepo
	m.balanceHistoryRepo = balanceHistoryRepo
	m.commitmentRepo = commitmentRepo
	m.betRepo = betRepo
	m.messageRepo = messageRepo
	m.commentRepo = commentRepo
}

func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) BalanceRepository() BalanceRepository {
	return m.balanceRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}

func (m *MockUnitOfWork) CommitmentRepository() CommitmentRepository {
	return m.commitmentRepo
}

func (m *MockUnitOfWork) BetRepository() BetRepository {
	return m.betRepo
}

func (m *MockUnitOfWork) MessageRepository() MessageRepository {
	return m.messageRepo
}

func (m *MockUnitOfWork) CommentRepository() CommentRepository {
	return m.commentRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return noopEventPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
