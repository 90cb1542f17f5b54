package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fleetpay/topup-gateway/internal/fleet"
	"github.com/fleetpay/topup-gateway/internal/logger"
	"github.com/fleetpay/topup-gateway/internal/models"
	repo "github.com/fleetpay/topup-gateway/internal/repository"
	"github.com/fleetpay/topup-gateway/internal/repository/badgerstore"
)

type stubForwarder struct {
	mu      sync.Mutex
	calls   int32
	fail    bool
	amounts []decimal.Decimal
	tokens  []string
}

func (f *stubForwarder) Topup(ctx context.Context, driverID string, amount decimal.Decimal, idempotencyToken string) error {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.amounts = append(f.amounts, amount)
	f.tokens = append(f.tokens, idempotencyToken)
	f.mu.Unlock()
	if f.fail {
		return &fleet.UpstreamError{StatusCode: 500}
	}
	return nil
}

func newGateway(t *testing.T, fwd Forwarder) (*GatewayService, badgerstore.Repositories) {
	t.Helper()
	db, err := badgerstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := badgerstore.NewRepositories(db)
	require.NoError(t, repos.Accounts.Create(context.Background(), models.Account{
		VirtualID: "1000",
		DriverID:  "drv-a",
		Name:      "Doe John",
		CreatedAt: time.Now().UTC(),
	}))

	gw := NewGatewayService(repos.Accounts, repos.Transactions, fwd, decimal.RequireFromString("4.5"), logger.New("test"))
	return gw, repos
}

func TestPayoutCommission(t *testing.T) {
	pct := decimal.RequireFromString("4.5")

	// 10000 minor units = 100.00, minus 4.5% = 95.50
	got := Payout(GrossFromMinor(10000), pct)
	require.Equal(t, "95.50", got.StringFixed(2))

	// round-half-up at the second decimal: 10.00 * 0.955 = 9.5500, 10.10 * 0.955 = 9.6455 -> 9.65
	got = Payout(GrossFromMinor(1010), pct)
	require.Equal(t, "9.65", got.StringFixed(2))

	require.Equal(t, "100.00", Payout(GrossFromMinor(10000), decimal.Zero).StringFixed(2))
}

func TestPerformHappyPath(t *testing.T) {
	fwd := &stubForwarder{}
	gw, repos := newGateway(t, fwd)
	ctx := context.Background()

	tx, err := gw.Perform(ctx, "txn-1", "1000", 10000)
	require.NoError(t, err)
	require.Equal(t, models.TxnCompleted, tx.State)
	require.NotEmpty(t, tx.ProviderTrnID)
	require.Equal(t, "100.00", tx.GrossAmount.StringFixed(2))

	require.EqualValues(t, 1, fwd.calls)
	require.Equal(t, "95.50", fwd.amounts[0].StringFixed(2))
	require.Equal(t, "txn-1", fwd.tokens[0])

	stored, err := repos.Transactions.Get(ctx, "txn-1")
	require.NoError(t, err)
	require.Equal(t, tx.ProviderTrnID, stored.ProviderTrnID)
}

func TestPerformUnknownAccountMakesNoUpstreamCall(t *testing.T) {
	fwd := &stubForwarder{}
	gw, repos := newGateway(t, fwd)
	ctx := context.Background()

	_, err := gw.Perform(ctx, "txn-1", "9999", 10000)
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.EqualValues(t, 0, fwd.calls)

	_, err = repos.Transactions.Get(ctx, "txn-1")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPerformSequentialDuplicate(t *testing.T) {
	fwd := &stubForwarder{}
	gw, _ := newGateway(t, fwd)
	ctx := context.Background()

	first, err := gw.Perform(ctx, "txn-1", "1000", 10000)
	require.NoError(t, err)

	_, err = gw.Perform(ctx, "txn-1", "1000", 10000)
	require.ErrorIs(t, err, repo.ErrAlreadyExists)

	// one upstream call ever; the record is the first one
	require.EqualValues(t, 1, fwd.calls)
	got, err := gw.Check(ctx, "txn-1")
	require.NoError(t, err)
	require.Equal(t, first.ProviderTrnID, got.ProviderTrnID)
}

func TestPerformConcurrentDuplicate(t *testing.T) {
	fwd := &stubForwarder{}
	gw, _ := newGateway(t, fwd)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	var okCount, dupCount int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.Perform(ctx, "txn-race", "1000", 10000)
			switch {
			case err == nil:
				atomic.AddInt32(&okCount, 1)
			case err == repo.ErrAlreadyExists:
				atomic.AddInt32(&dupCount, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, okCount)
	require.EqualValues(t, n-1, dupCount)
	require.EqualValues(t, 1, fwd.calls)
}

func TestPerformUpstreamFailureLeavesNoRecord(t *testing.T) {
	fwd := &stubForwarder{fail: true}
	gw, repos := newGateway(t, fwd)
	ctx := context.Background()

	_, err := gw.Perform(ctx, "txn-1", "1000", 10000)
	var ue *fleet.UpstreamError
	require.ErrorAs(t, err, &ue)

	_, err = repos.Transactions.Get(ctx, "txn-1")
	require.ErrorIs(t, err, repo.ErrNotFound)

	// a retry with the same id is treated as new, not duplicate
	fwd.fail = false
	tx, err := gw.Perform(ctx, "txn-1", "1000", 10000)
	require.NoError(t, err)
	require.Equal(t, models.TxnCompleted, tx.State)
	require.EqualValues(t, 2, fwd.calls)
}

func TestCancelIsOneShot(t *testing.T) {
	fwd := &stubForwarder{}
	gw, _ := newGateway(t, fwd)
	ctx := context.Background()

	_, err := gw.Cancel(ctx, "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)

	created, err := gw.Perform(ctx, "txn-1", "1000", 10000)
	require.NoError(t, err)

	cancelled, err := gw.Cancel(ctx, "txn-1")
	require.NoError(t, err)
	require.Equal(t, models.TxnCancelled, cancelled.State)
	require.Equal(t, created.ProviderTrnID, cancelled.ProviderTrnID)

	_, err = gw.Cancel(ctx, "txn-1")
	require.ErrorIs(t, err, repo.ErrAlreadyCancelled)

	// cancellation is bookkeeping only, no new upstream traffic
	require.EqualValues(t, 1, fwd.calls)
}

func TestStatusSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	fwd := &stubForwarder{}
	log := logger.New("test")
	pct := decimal.RequireFromString("4.5")

	db, err := badgerstore.Open(dir)
	require.NoError(t, err)
	repos := badgerstore.NewRepositories(db)
	require.NoError(t, repos.Accounts.Create(ctx, models.Account{VirtualID: "1000", DriverID: "drv-a", Name: "Doe John"}))

	gw := NewGatewayService(repos.Accounts, repos.Transactions, fwd, pct, log)
	created, err := gw.Perform(ctx, "txn-1", "1000", 10000)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = badgerstore.Open(dir)
	require.NoError(t, err)
	defer db.Close()
	repos = badgerstore.NewRepositories(db)
	gw = NewGatewayService(repos.Accounts, repos.Transactions, fwd, pct, log)

	got, err := gw.Check(ctx, "txn-1")
	require.NoError(t, err)
	require.Equal(t, models.TxnCompleted, got.State)
	require.Equal(t, created.ProviderTrnID, got.ProviderTrnID)

	_, err = gw.Perform(ctx, "txn-1", "1000", 10000)
	require.ErrorIs(t, err, repo.ErrAlreadyExists)
	require.EqualValues(t, 1, fwd.calls)
}
