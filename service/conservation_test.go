package service

import (
	"context"
	"testing"
	"time"

	"commitcast/ai"
	"commitcast/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedger is a single in-memory store shared by the fake repositories
// below. It exists so a test can drive the real services through whole
// place/cancel/resolve sequences and then check the books: no currency
// may ever be created or destroyed, apart from the bounded truncation
// remainder a settlement leaves undistributed.
type memLedger struct {
	granted     int64
	balances    map[int64]int64
	commitments map[int64]*models.Commitment
	bets        []*models.Bet
	nextBetID   int64
	history     []*models.BalanceHistory
}

func newMemLedger() *memLedger {
	return &memLedger{
		balances:    make(map[int64]int64),
		commitments: make(map[int64]*models.Commitment),
	}
}

func (l *memLedger) grant(userID, amount int64) {
	l.balances[userID] += amount
	l.granted += amount
}

func (l *memLedger) seedCommitment(c *models.Commitment) {
	l.commitments[c.ID] = c
}

// unresolvedStakes sums the stakes still locked up in open bets.
func (l *memLedger) unresolvedStakes() int64 {
	var total int64
	for _, bet := range l.bets {
		if !bet.Resolved {
			total += bet.Amount
		}
	}
	return total
}

func (l *memLedger) totalBalances() int64 {
	var total int64
	for _, balance := range l.balances {
		total += balance
	}
	return total
}

type memBalanceRepo struct{ l *memLedger }

func (r *memBalanceRepo) Get(ctx context.Context, userID int64) (*models.Balance, error) {
	balance, ok := r.l.balances[userID]
	if !ok {
		return nil, nil
	}
	return &models.Balance{UserID: userID, Balance: balance}, nil
}

func (r *memBalanceRepo) Create(ctx context.Context, userID int64, initial int64) (*models.Balance, error) {
	r.l.grant(userID, initial)
	return &models.Balance{UserID: userID, Balance: initial}, nil
}

func (r *memBalanceRepo) Add(ctx context.Context, userID int64, amount int64) error {
	r.l.balances[userID] += amount
	return nil
}

func (r *memBalanceRepo) Deduct(ctx context.Context, userID int64, amount int64) error {
	if r.l.balances[userID] < amount {
		return ErrInsufficientFunds
	}
	r.l.balances[userID] -= amount
	return nil
}

type memBetRepo struct{ l *memLedger }

func (r *memBetRepo) Create(ctx context.Context, bet *models.Bet) error {
	r.l.nextBetID++
	bet.ID = r.l.nextBetID
	bet.CreatedAt = time.Now()
	r.l.bets = append(r.l.bets, bet)
	return nil
}

func (r *memBetRepo) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	for _, bet := range r.l.bets {
		if bet.ID == id {
			return bet, nil
		}
	}
	return nil, nil
}

func (r *memBetRepo) GetByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error) {
	var out []*models.Bet
	for _, bet := range r.l.bets {
		if bet.CommitmentID == commitmentID {
			out = append(out, bet)
		}
	}
	return out, nil
}

func (r *memBetRepo) GetUnresolvedByCommitment(ctx context.Context, commitmentID int64) ([]*models.Bet, error) {
	var out []*models.Bet
	for _, bet := range r.l.bets {
		if bet.CommitmentID == commitmentID && !bet.Resolved {
			out = append(out, bet)
		}
	}
	return out, nil
}

func (r *memBetRepo) MarkResolved(ctx context.Context, betID int64, payout int64) error {
	for _, bet := range r.l.bets {
		if bet.ID == betID {
			bet.Resolved = true
			bet.Payout = &payout
			return nil
		}
	}
	return nil
}

func (r *memBetRepo) Delete(ctx context.Context, betID int64) error {
	for i, bet := range r.l.bets {
		if bet.ID == betID {
			r.l.bets = append(r.l.bets[:i], r.l.bets[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memBetRepo) CountByCommitment(ctx context.Context, commitmentID int64) (int, error) {
	count := 0
	for _, bet := range r.l.bets {
		if bet.CommitmentID == commitmentID {
			count++
		}
	}
	return count, nil
}

type memCommitmentRepo struct{ l *memLedger }

func (r *memCommitmentRepo) Create(ctx context.Context, commitment *models.Commitment) error {
	r.l.commitments[commitment.ID] = commitment
	return nil
}

func (r *memCommitmentRepo) GetByID(ctx context.Context, id int64) (*models.Commitment, error) {
	return r.l.commitments[id], nil
}

func (r *memCommitmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Commitment, error) {
	return r.l.commitments[id], nil
}

func (r *memCommitmentRepo) GetByPublicCode(ctx context.Context, code string) (*models.Commitment, error) {
	for _, c := range r.l.commitments {
		if c.PublicCode == code {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCommitmentRepo) PublicCodeExists(ctx context.Context, code string) (bool, error) {
	c, _ := r.GetByPublicCode(ctx, code)
	return c != nil, nil
}

func (r *memCommitmentRepo) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Commitment, error) {
	return nil, nil
}

func (r *memCommitmentRepo) GetPublic(ctx context.Context, limit int) ([]*models.Commitment, error) {
	return nil, nil
}

func (r *memCommitmentRepo) UpdatePrediction(ctx context.Context, id int64, probability float64, explanation string, confidence models.ConfidenceLabel) error {
	return nil
}

func (r *memCommitmentRepo) MarkResolved(ctx context.Context, id int64, status models.CommitmentStatus, report, evidence *string, resolvedAt time.Time) (bool, error) {
	c, ok := r.l.commitments[id]
	if !ok || c.Status != models.CommitmentStatusPending {
		return false, nil
	}
	c.Status = status
	c.CompletionReport = report
	c.EvidenceURL = evidence
	c.ResolvedAt = &resolvedAt
	return true, nil
}

func (r *memCommitmentRepo) Delete(ctx context.Context, id int64) error {
	delete(r.l.commitments, id)
	return nil
}

func (r *memCommitmentRepo) StatusCounts(ctx context.Context, ownerID int64) (StatusCounts, error) {
	return StatusCounts{}, nil
}

type memHistoryRepo struct{ l *memLedger }

func (r *memHistoryRepo) Record(ctx context.Context, history *models.BalanceHistory) error {
	r.l.history = append(r.l.history, history)
	return nil
}

func (r *memHistoryRepo) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	return nil, nil
}

type memMessageRepo struct{}

func (r *memMessageRepo) CreateContext(ctx context.Context, msg *models.ContextMessage) error {
	return nil
}

func (r *memMessageRepo) ListContext(ctx context.Context, commitmentID int64) ([]*models.ContextMessage, error) {
	return nil, nil
}

func (r *memMessageRepo) CreateCoaching(ctx context.Context, msg *models.CoachingMessage) error {
	return nil
}

func (r *memMessageRepo) ListCoaching(ctx context.Context, commitmentID int64) ([]*models.CoachingMessage, error) {
	return nil, nil
}

func (r *memMessageRepo) DeleteByCommitment(ctx context.Context, commitmentID int64) error {
	return nil
}

// memUnitOfWork applies every operation directly to the shared ledger.
// There is no transaction isolation, which is fine for the sequential
// sequences these tests run.
type memUnitOfWork struct{ l *memLedger }

func (u *memUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *memUnitOfWork) Commit() error { return nil }

func (u *memUnitOfWork) Rollback() error { return nil }

func (u *memUnitOfWork) UserRepository() UserRepository { return nil }

func (u *memUnitOfWork) BalanceRepository() BalanceRepository {
	return &memBalanceRepo{l: u.l}
}

func (u *memUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return &memHistoryRepo{l: u.l}
}

func (u *memUnitOfWork) CommitmentRepository() CommitmentRepository {
	return &memCommitmentRepo{l: u.l}
}

func (u *memUnitOfWork) BetRepository() BetRepository { return &memBetRepo{l: u.l} }

func (u *memUnitOfWork) MessageRepository() MessageRepository { return &memMessageRepo{} }

func (u *memUnitOfWork) CommentRepository() CommentRepository { return nil }

func (u *memUnitOfWork) EventBus() EventPublisher { return noopEventPublisher{} }

type memUnitOfWorkFactory struct{ l *memLedger }

func (f *memUnitOfWorkFactory) Create() UnitOfWork { return &memUnitOfWork{l: f.l} }

// TestCurrencyConservation drives the real bet and commitment services
// through place, cancel, and resolve sequences over an in-memory ledger
// and checks after every step that total balances plus stakes locked in
// open bets equal the total ever granted, less any settlement remainder.
func TestCurrencyConservation(t *testing.T) {
	ctx := context.Background()

	setup := func() (*memLedger, BetService, CommitmentService) {
		ledger := newMemLedger()
		factory := &memUnitOfWorkFactory{l: ledger}
		return ledger, NewBetService(factory), NewCommitmentService(factory, ai.NewFallbackClient())
	}

	assertConserved := func(t *testing.T, ledger *memLedger, remainder int64, step string) {
		t.Helper()
		assert.Equal(t, ledger.granted-remainder, ledger.totalBalances()+ledger.unresolvedStakes(),
			"currency not conserved after %s", step)
	}

	t.Run("place cancel resolve sequence", func(t *testing.T) {
		ledger, bets, commitments := setup()
		ledger.grant(1, 500)
		ledger.grant(2, 500)
		ledger.grant(3, 500)
		ledger.seedCommitment(&models.Commitment{
			ID:         1,
			PublicCode: "CONSERVE",
			OwnerID:    1,
			Title:      "Run a marathon",
			Category:   "health",
			Deadline:   time.Now().Add(48 * time.Hour),
			Visibility: models.VisibilityPublic,
			Status:     models.CommitmentStatusPending,
		})
		assertConserved(t, ledger, 0, "grants")

		_, err := bets.Place(ctx, 1, 2, models.BetDirectionWillComplete, 100)
		require.NoError(t, err)
		assertConserved(t, ledger, 0, "first stake")

		_, err = bets.Place(ctx, 1, 3, models.BetDirectionWillFail, 60)
		require.NoError(t, err)
		assertConserved(t, ledger, 0, "second stake")

		extra, err := bets.Place(ctx, 1, 2, models.BetDirectionWillComplete, 50)
		require.NoError(t, err)
		assertConserved(t, ledger, 0, "third stake")

		require.NoError(t, bets.Cancel(ctx, extra.ID, 2))
		assertConserved(t, ledger, 0, "cancellation")

		_, err = commitments.Resolve(ctx, 1, 1, true, nil, nil)
		require.NoError(t, err)
		assertConserved(t, ledger, 0, "settlement")

		// Pot of 60 goes entirely to the sole winner.
		assert.Equal(t, int64(500), ledger.balances[1])
		assert.Equal(t, int64(560), ledger.balances[2])
		assert.Equal(t, int64(440), ledger.balances[3])
		assert.Zero(t, ledger.unresolvedStakes())
	})

	t.Run("truncation remainder stays out of circulation", func(t *testing.T) {
		ledger, bets, commitments := setup()
		ledger.grant(1, 500)
		ledger.grant(2, 500)
		ledger.grant(3, 500)
		ledger.grant(4, 500)
		ledger.seedCommitment(&models.Commitment{
			ID:         1,
			PublicCode: "REMAINDR",
			OwnerID:    1,
			Title:      "Write every day",
			Category:   "personal",
			Deadline:   time.Now().Add(48 * time.Hour),
			Visibility: models.VisibilityPublic,
			Status:     models.CommitmentStatusPending,
		})

		_, err := bets.Place(ctx, 1, 2, models.BetDirectionWillComplete, 33)
		require.NoError(t, err)
		_, err = bets.Place(ctx, 1, 3, models.BetDirectionWillComplete, 34)
		require.NoError(t, err)
		_, err = bets.Place(ctx, 1, 4, models.BetDirectionWillFail, 100)
		require.NoError(t, err)
		assertConserved(t, ledger, 0, "stakes")

		// Pot 100 over winner stake 67: shares truncate to 49 and 50,
		// leaving 1 undistributed.
		_, err = commitments.Resolve(ctx, 1, 1, true, nil, nil)
		require.NoError(t, err)
		assertConserved(t, ledger, 1, "settlement")

		assert.Equal(t, int64(500+49), ledger.balances[2])
		assert.Equal(t, int64(500+50), ledger.balances[3])
		assert.Equal(t, int64(400), ledger.balances[4])
	})

	t.Run("no winner settlement destroys only the forfeited stakes", func(t *testing.T) {
		ledger, bets, commitments := setup()
		ledger.grant(1, 500)
		ledger.grant(2, 500)
		ledger.seedCommitment(&models.Commitment{
			ID:         1,
			PublicCode: "NOWINNER",
			OwnerID:    1,
			Title:      "Learn to juggle",
			Category:   "personal",
			Deadline:   time.Now().Add(48 * time.Hour),
			Visibility: models.VisibilityPublic,
			Status:     models.CommitmentStatusPending,
		})

		_, err := bets.Place(ctx, 1, 2, models.BetDirectionWillFail, 80)
		require.NoError(t, err)
		assertConserved(t, ledger, 0, "stake")

		// The only bettor picked the losing side; the whole pot of 80
		// goes undistributed.
		_, err = commitments.Resolve(ctx, 1, 1, true, nil, nil)
		require.NoError(t, err)
		assertConserved(t, ledger, 80, "settlement")
		assert.Equal(t, int64(420), ledger.balances[2])
	})
}
