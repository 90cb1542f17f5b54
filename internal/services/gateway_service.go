package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetpay/topup-gateway/internal/metrics"
	"github.com/fleetpay/topup-gateway/internal/models"
	repo "github.com/fleetpay/topup-gateway/internal/repository"
)

// Forwarder is the single outbound money-moving call.
type Forwarder interface {
	Topup(ctx context.Context, driverID string, amount decimal.Decimal, idempotencyToken string) error
}

// GatewayService implements the processor-facing operations: account lookup,
// transaction creation, status check and cancellation. It is the sole writer
// of the transaction ledger.
type GatewayService struct {
	accounts   repo.Accounts
	txns       repo.Transactions
	fwd        Forwarder
	commission decimal.Decimal
	locks      *keyLock
	log        *slog.Logger
}

func NewGatewayService(a repo.Accounts, t repo.Transactions, f Forwarder, commissionPercent decimal.Decimal, log *slog.Logger) *GatewayService {
	return &GatewayService{
		accounts:   a,
		txns:       t,
		fwd:        f,
		commission: commissionPercent,
		locks:      newKeyLock(),
		log:        log,
	}
}

// Payout returns the amount forwarded to the driver: the gross amount minus
// the commission, rounded half-up to 2 decimal places.
func Payout(gross, commissionPercent decimal.Decimal) decimal.Decimal {
	rate := decimal.NewFromInt(1).Sub(commissionPercent.Div(decimal.NewFromInt(100)))
	return gross.Mul(rate).Round(2)
}

// GrossFromMinor converts the processor's minor-unit amount to major units.
func GrossFromMinor(amountMinor int64) decimal.Decimal {
	return decimal.New(amountMinor, -2)
}

func (s *GatewayService) Lookup(ctx context.Context, virtualAccountID string) (models.Account, error) {
	return s.accounts.Get(ctx, virtualAccountID)
}

// Perform creates the transaction. The whole check / forward / persist
// sequence runs under a per-transaction-id lock so that this gateway issues
// at most one upstream call per transaction id, ever: a concurrent duplicate
// blocks on the lock and then hits the ledger check.
func (s *GatewayService) Perform(ctx context.Context, txnID, virtualAccountID string, amountMinor int64) (models.Transaction, error) {
	unlock := s.locks.Lock(txnID)
	defer unlock()

	if _, err := s.txns.Get(ctx, txnID); err == nil {
		return models.Transaction{}, repo.ErrAlreadyExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return models.Transaction{}, err
	}

	acct, err := s.accounts.Get(ctx, virtualAccountID)
	if err != nil {
		return models.Transaction{}, err
	}

	gross := GrossFromMinor(amountMinor)
	payout := Payout(gross, s.commission)

	if err := s.fwd.Topup(ctx, acct.DriverID, payout, txnID); err != nil {
		// no ledger record was written, a retry with the same id starts over
		metrics.TransactionsFailed.Inc()
		s.log.Error("upstream topup failed", "txn_id", txnID, "driver_id", acct.DriverID, "err", err)
		return models.Transaction{}, err
	}

	now := time.Now().UTC()
	tx := models.Transaction{
		ID:               txnID,
		State:            models.TxnCompleted,
		GrossAmount:      gross,
		VirtualAccountID: virtualAccountID,
		ProviderTrnID:    uuid.NewString(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.txns.CreateIfAbsent(ctx, tx); err != nil {
		// a durable-write failure here is fatal to the operation: the money
		// has moved but we cannot report success we could not record
		s.log.Error("ledger write failed after upstream success", "txn_id", txnID, "err", err)
		return models.Transaction{}, err
	}

	metrics.TransactionsTotal.Inc()
	s.log.Info("transaction completed",
		"txn_id", txnID,
		"virtual_account_id", virtualAccountID,
		"gross", gross.StringFixed(2),
		"payout", payout.StringFixed(2),
	)
	return tx, nil
}

func (s *GatewayService) Check(ctx context.Context, txnID string) (models.Transaction, error) {
	return s.txns.Get(ctx, txnID)
}

// Cancel flips the ledger record to Cancelled. It never reverses the
// upstream credit: settlement on the fleet side is authoritative, this is
// bookkeeping only.
func (s *GatewayService) Cancel(ctx context.Context, txnID string) (models.Transaction, error) {
	unlock := s.locks.Lock(txnID)
	defer unlock()

	tx, err := s.txns.MarkCancelled(ctx, txnID)
	if err != nil {
		return models.Transaction{}, err
	}
	s.log.Info("transaction cancelled", "txn_id", txnID)
	return tx, nil
}
