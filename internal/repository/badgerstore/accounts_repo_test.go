package badgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetpay/topup-gateway/internal/models"
	repo "github.com/fleetpay/topup-gateway/internal/repository"
)

func newAccount(virtualID, driverID string) models.Account {
	return models.Account{
		VirtualID: virtualID,
		DriverID:  driverID,
		Name:      "Doe John",
		CreatedAt: time.Now().UTC(),
	}
}

func TestAccountsCreateAndLookup(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	repos := NewRepositories(db)
	ctx := context.Background()

	_, err = repos.Accounts.Get(ctx, "1000")
	require.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, repos.Accounts.Create(ctx, newAccount("1000", "drv-a")))

	got, err := repos.Accounts.Get(ctx, "1000")
	require.NoError(t, err)
	require.Equal(t, "drv-a", got.DriverID)

	byDriver, err := repos.Accounts.GetByDriverID(ctx, "drv-a")
	require.NoError(t, err)
	require.Equal(t, "1000", byDriver.VirtualID)

	_, err = repos.Accounts.GetByDriverID(ctx, "drv-unknown")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAccountsMappingIsImmutable(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	repos := NewRepositories(db)
	ctx := context.Background()

	require.NoError(t, repos.Accounts.Create(ctx, newAccount("1000", "drv-a")))

	// neither side of an existing mapping may be reassigned
	err = repos.Accounts.Create(ctx, newAccount("1000", "drv-b"))
	require.ErrorIs(t, err, repo.ErrAlreadyExists)
	err = repos.Accounts.Create(ctx, newAccount("1001", "drv-a"))
	require.ErrorIs(t, err, repo.ErrAlreadyExists)

	got, err := repos.Accounts.Get(ctx, "1000")
	require.NoError(t, err)
	require.Equal(t, "drv-a", got.DriverID)
}

func TestAccountsMaxVirtualID(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	repos := NewRepositories(db)
	ctx := context.Background()

	max, err := repos.Accounts.MaxVirtualID(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, max)

	require.NoError(t, repos.Accounts.Create(ctx, newAccount("1000", "drv-a")))
	require.NoError(t, repos.Accounts.Create(ctx, newAccount("1002", "drv-b")))

	max, err = repos.Accounts.MaxVirtualID(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1002, max)

	list, err := repos.Accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
