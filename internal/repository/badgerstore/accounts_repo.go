package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v3"

	"github.com/fleetpay/topup-gateway/internal/models"
	repo "github.com/fleetpay/topup-gateway/internal/repository"
)

const (
	acctPrefix = "acct:"
	// reverse index driver id -> virtual id, so roster sync can test
	// membership without scanning the whole directory
	acctDrvPrefix = "acctdrv:"
)

type accountsRepo struct{ db *badger.DB }

func acctKey(virtualID string) []byte   { return []byte(acctPrefix + virtualID) }
func acctDrvKey(driverID string) []byte { return []byte(acctDrvPrefix + driverID) }

func (r *accountsRepo) Get(ctx context.Context, virtualID string) (models.Account, error) {
	var a models.Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(acctKey(virtualID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &a) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Account{}, repo.ErrNotFound
	}
	return a, err
}

func (r *accountsRepo) GetByDriverID(ctx context.Context, driverID string) (models.Account, error) {
	var virtualID string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(acctDrvKey(driverID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			virtualID = string(v)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Account{}, repo.ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return r.Get(ctx, virtualID)
}

func (r *accountsRepo) Create(ctx context.Context, a models.Account) error {
	val, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(acctKey(a.VirtualID)); err == nil {
			return repo.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if _, err := txn.Get(acctDrvKey(a.DriverID)); err == nil {
			return repo.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(acctKey(a.VirtualID), val); err != nil {
			return err
		}
		return txn.Set(acctDrvKey(a.DriverID), []byte(a.VirtualID))
	})
}

func (r *accountsRepo) List(ctx context.Context) ([]models.Account, error) {
	out := make([]models.Account, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(acctPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var a models.Account
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &a) }); err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}

func (r *accountsRepo) MaxVirtualID(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(acctPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := string(it.Item().Key()[len(prefix):])
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("non-numeric virtual id %q: %w", raw, err)
			}
			if n > max {
				max = n
			}
		}
		return nil
	})
	return max, err
}
