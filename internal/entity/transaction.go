package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindDeposit  Kind = "DEPOSIT"
	KindWithdraw Kind = "WITHDRAW"
	KindTransfer Kind = "TRANSFER"
)

// TransactionRecord is one ledger entry. The ledger is append-only: records
// are never updated or deleted. ID and Timestamp are assigned by the store on
// append; Counterparty is set only for transfers.
type TransactionRecord struct {
	ID           uint64          `json:"id"`
	Account      string          `json:"account"`
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}
