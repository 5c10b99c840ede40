package repository

import (
	"context"
	"testing"
	"time"

	"commitcast/models"
	"commitcast/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewCommitmentRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.CreateTestUser(testutil.UniqueEmail("owner"), "Owner")
	require.NoError(t, users.Create(ctx, owner))

	t.Run("not found by id", func(t *testing.T) {
		commitment, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, commitment)
	})

	t.Run("create and retrieve", func(t *testing.T) {
		commitment := testutil.CreateTestCommitment(owner.ID, "A1B2C3D4")
		require.NoError(t, repo.Create(ctx, commitment))
		assert.NotZero(t, commitment.ID)
		assert.False(t, commitment.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, commitment.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, commitment.PublicCode, got.PublicCode)
		assert.Equal(t, commitment.Title, got.Title)
		assert.Equal(t, models.CommitmentStatusPending, got.Status)
		assert.Nil(t, got.PredictionProbability)
		assert.Nil(t, got.ResolvedAt)
	})

	t.Run("retrieve by public code", func(t *testing.T) {
		got, err := repo.GetByPublicCode(ctx, "A1B2C3D4")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, owner.ID, got.OwnerID)

		missing, err := repo.GetByPublicCode(ctx, "ZZZZZZZZ")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("retrieve with row lock", func(t *testing.T) {
		got, err := repo.GetByIDForUpdate(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, got)

		existing, err := repo.GetByPublicCode(ctx, "A1B2C3D4")
		require.NoError(t, err)
		require.NotNil(t, existing)

		got, err = repo.GetByIDForUpdate(ctx, existing.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, existing.PublicCode, got.PublicCode)
	})

	t.Run("public code existence", func(t *testing.T) {
		exists, err := repo.PublicCodeExists(ctx, "A1B2C3D4")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.PublicCodeExists(ctx, "ZZZZZZZZ")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestCommitmentRepository_MarkResolved(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewCommitmentRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.CreateTestUser(testutil.UniqueEmail("resolver"), "Resolver")
	require.NoError(t, users.Create(ctx, owner))

	commitment := testutil.CreateTestCommitment(owner.ID, "RESOLVE1")
	require.NoError(t, repo.Create(ctx, commitment))

	report := "Done with time to spare"

	t.Run("first resolution wins", func(t *testing.T) {
		flipped, err := repo.MarkResolved(ctx, commitment.ID, models.CommitmentStatusCompleted, &report, nil, time.Now())
		require.NoError(t, err)
		assert.True(t, flipped)

		got, err := repo.GetByID(ctx, commitment.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.CommitmentStatusCompleted, got.Status)
		require.NotNil(t, got.CompletionReport)
		assert.Equal(t, report, *got.CompletionReport)
		assert.NotNil(t, got.ResolvedAt)
	})

	t.Run("second resolution affects nothing", func(t *testing.T) {
		flipped, err := repo.MarkResolved(ctx, commitment.ID, models.CommitmentStatusFailed, nil, nil, time.Now())
		require.NoError(t, err)
		assert.False(t, flipped)

		got, err := repo.GetByID(ctx, commitment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CommitmentStatusCompleted, got.Status)
	})
}

func TestCommitmentRepository_UpdatePrediction(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewCommitmentRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.CreateTestUser(testutil.UniqueEmail("predict"), "Predictor")
	require.NoError(t, users.Create(ctx, owner))

	commitment := testutil.CreateTestCommitment(owner.ID, "PREDICT1")
	require.NoError(t, repo.Create(ctx, commitment))

	err := repo.UpdatePrediction(ctx, commitment.ID, 0.72, "Looks achievable given the timeline.", models.ConfidenceMedium)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, commitment.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PredictionProbability)
	assert.InDelta(t, 0.72, *got.PredictionProbability, 0.0001)
	require.NotNil(t, got.ConfidenceLabel)
	assert.Equal(t, models.ConfidenceMedium, *got.ConfidenceLabel)
}

func TestCommitmentRepository_StatusCounts(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	users := NewUserRepository(testDB.DB)
	repo := NewCommitmentRepository(testDB.DB)
	ctx := context.Background()

	owner := testutil.CreateTestUser(testutil.UniqueEmail("counts"), "Counter")
	require.NoError(t, users.Create(ctx, owner))

	codes := []string{"COUNTS01", "COUNTS02", "COUNTS03"}
	for _, code := range codes {
		c := testutil.CreateTestCommitment(owner.ID, code)
		require.NoError(t, repo.Create(ctx, c))
	}

	first, err := repo.GetByPublicCode(ctx, "COUNTS01")
	require.NoError(t, err)
	flipped, err := repo.MarkResolved(ctx, first.ID, models.CommitmentStatusCompleted, nil, nil, time.Now())
	require.NoError(t, err)
	require.True(t, flipped)

	counts, err := repo.StatusCounts(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Completed)
	assert.Equal(t, 0, counts.Failed)
	assert.Equal(t, 2, counts.Pending)
	assert.InDelta(t, 1.0, counts.SuccessRate(), 0.0001)
}
