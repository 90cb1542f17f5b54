package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionState uses the wire values of the processor protocol.
type TransactionState int

const (
	TxnCompleted TransactionState = 1
	TxnCancelled TransactionState = 2
)

// Transaction is one ledger entry. The id is supplied by the payment
// processor and is never reused; a record exists only after the upstream
// top-up succeeded, so there is no persisted pending state.
type Transaction struct {
	ID               string           `json:"id"`
	State            TransactionState `json:"state"`
	GrossAmount      decimal.Decimal  `json:"gross_amount"`
	VirtualAccountID string           `json:"virtual_account_id"`
	ProviderTrnID    string           `json:"provider_trn_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
