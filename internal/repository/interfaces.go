package repository

import (
	"context"
	"errors"

	"github.com/fleetpay/topup-gateway/internal/models"
)

var (
	// ErrNotFound is returned for unknown virtual accounts and unknown
	// transaction ids.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is the duplicate-transaction signal from
	// CreateIfAbsent. It is an expected outcome, not a failure.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAlreadyCancelled is returned when cancelling a transaction twice.
	ErrAlreadyCancelled = errors.New("already cancelled")
)

type Accounts interface {
	Get(ctx context.Context, virtualID string) (models.Account, error)
	GetByDriverID(ctx context.Context, driverID string) (models.Account, error)
	Create(ctx context.Context, a models.Account) error
	List(ctx context.Context) ([]models.Account, error)
	// MaxVirtualID returns the highest numeric virtual id ever assigned,
	// or 0 when the directory is empty.
	MaxVirtualID(ctx context.Context) (int64, error)
}

type Transactions interface {
	Get(ctx context.Context, id string) (models.Transaction, error)
	// CreateIfAbsent inserts the record unless the id is already present;
	// the check and the insert are one atomic store transaction.
	CreateIfAbsent(ctx context.Context, tx models.Transaction) error
	// MarkCancelled performs the one-way Completed -> Cancelled transition
	// and returns the updated record.
	MarkCancelled(ctx context.Context, id string) (models.Transaction, error)
}
