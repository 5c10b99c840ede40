package service

import (
	"context"
	"testing"

	"commitcast/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func createTestUserService() (UserService, *MockUnitOfWork, *MockUserRepository, *MockBalanceRepository, *MockBalanceHistoryRepository, *MockCommitmentRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceRepo := new(MockBalanceRepository)
	mockHistoryRepo := new(MockBalanceHistoryRepository)
	mockCommitmentRepo := new(MockCommitmentRepository)

	mockUoW.SetRepositories(mockUserRepo, mockBalanceRepo, mockHistoryRepo, mockCommitmentRepo, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)

	svc := NewUserService(mockFactory, 500)
	return svc, mockUoW, mockUserRepo, mockBalanceRepo, mockHistoryRepo, mockCommitmentRepo
}

func TestUserServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success grants starting balance", func(t *testing.T) {
		svc, mockUoW, mockUserRepo, mockBalanceRepo, mockHistoryRepo, _ := createTestUserService()
		mockUoW.On("Begin", mock.Anything).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, nil)
		mockUserRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "alice@example.com" && u.DisplayName == "Alice" && u.PasswordHash != "secret123"
		})).Return(nil)
		mockBalanceRepo.On("Create", mock.Anything, int64(0), int64(500)).Return(&models.Balance{Balance: 500}, nil)
		mockHistoryRepo.On("Record", mock.Anything, mock.MatchedBy(func(h *models.BalanceHistory) bool {
			return h.TransactionType == models.TransactionTypeInitial && h.ChangeAmount == 500
		})).Return(nil)

		user, err := svc.Register(ctx, " Alice@Example.com ", "secret123", "Alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		mockHistoryRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, mockUoW, mockUserRepo, _, _, _ := createTestUserService()
		mockUoW.On("Begin", mock.Anything).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(&models.User{ID: 1}, nil)

		_, err := svc.Register(ctx, "alice@example.com", "secret123", "Alice")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		svc, _, _, _, _, _ := createTestUserService()

		_, err := svc.Register(ctx, "not-an-email", "secret123", "Alice")
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Register(ctx, "alice@example.com", "short", "Alice")
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Register(ctx, "alice@example.com", "secret123", "   ")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestUserServiceAuthenticate(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 1, Email: "alice@example.com", PasswordHash: string(hash)}

	t.Run("valid credentials", func(t *testing.T) {
		svc, mockUoW, mockUserRepo, _, _, _ := createTestUserService()
		mockUoW.On("Begin", mock.Anything).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

		user, err := svc.Authenticate(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mockUoW, mockUserRepo, _, _, _ := createTestUserService()
		mockUoW.On("Begin", mock.Anything).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUserRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

		_, err := svc.Authenticate(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown email looks like wrong password", func(t *testing.T) {
		svc, mockUoW, mockUserRepo, _, _, _ := createTestUserService()
		mockUoW.On("Begin", mock.Anything).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUserRepo.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, nil)

		_, err := svc.Authenticate(ctx, "bob@example.com", "secret123")
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestUserServiceGetStats(t *testing.T) {
	ctx := context.Background()

	t.Run("combines counts and balance", func(t *testing.T) {
		svc, mockUoW, mockUserRepo, mockBalanceRepo, _, mockCommitmentRepo := createTestUserService()
		mockUoW.On("Begin", mock.Anything).Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockUserRepo.On("GetByID", mock.Anything, int64(1)).Return(&models.User{ID: 1, Email: "alice@example.com", DisplayName: "Alice"}, nil)
		mockCommitmentRepo.On("StatusCounts", mock.Anything, int64(1)).Return(StatusCounts{Completed: 3, Failed: 1, Pending: 2}, nil)
		mockBalanceRepo.On("Get", mock.Anything, int64(1)).Return(&models.Balance{UserID: 1, Balance: 640}, nil)

		stats, err := svc.GetStats(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.CompletedCount)
		assert.Equal(t, 0.75, stats.SuccessRate)
		assert.Equal(t, int64(640), stats.Balance)
	})

	t.Run("no resolved commitments means neutral rate", func(t *testing.T) {
		counts := StatusCounts{Pending: 4}
		assert.Equal(t, 0.5, counts.SuccessRate())
	})
}
