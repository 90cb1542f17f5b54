package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/fleetpay/topup-gateway/internal/models"
	repo "github.com/fleetpay/topup-gateway/internal/repository"
)

const txnPrefix = "txn:"

type transactionsRepo struct{ db *badger.DB }

func txnKey(id string) []byte { return []byte(txnPrefix + id) }

func (r *transactionsRepo) Get(ctx context.Context, id string) (models.Transaction, error) {
	var tx models.Transaction
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(txnKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &tx) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, err
}

func (r *transactionsRepo) CreateIfAbsent(ctx context.Context, tx models.Transaction) error {
	val, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(txnKey(tx.ID))
		if err == nil {
			return repo.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(txnKey(tx.ID), val)
	})
}

func (r *transactionsRepo) MarkCancelled(ctx context.Context, id string) (models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(txnKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &tx) }); err != nil {
			return err
		}
		if tx.State == models.TxnCancelled {
			return repo.ErrAlreadyCancelled
		}
		tx.State = models.TxnCancelled
		tx.UpdatedAt = time.Now().UTC()
		val, err := json.Marshal(tx)
		if err != nil {
			return err
		}
		return txn.Set(txnKey(id), val)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}
