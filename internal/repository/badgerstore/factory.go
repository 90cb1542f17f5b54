package badgerstore

import (
	"github.com/dgraph-io/badger/v3"

	repo "github.com/fleetpay/topup-gateway/internal/repository"
)

type Repositories struct {
	Accounts     repo.Accounts
	Transactions repo.Transactions
}

func NewRepositories(db *badger.DB) Repositories {
	return Repositories{
		Accounts:     &accountsRepo{db},
		Transactions: &transactionsRepo{db},
	}
}
