package badgerstore

import (
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

// Open opens the embedded store at path. SyncWrites is on: a committed
// mutation has reached disk before the call returns, which is what lets the
// gateway answer "success" without risking a crash silently undoing it.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db: %w", err)
	}
	return db, nil
}
