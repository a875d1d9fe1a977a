package usecase

import (
	"github.com/shopspring/decimal"

	"minibank/internal/entity"
)

// Tx is one transaction against the bank store. Writes made through a Tx are
// staged: the store commits them together or discards them together.
type Tx interface {
	// Account returns the account with the given number, or
	// entity.AccountNotFoundErr.
	Account(number string) (entity.Account, error)
	// CreateAccount stores a new account. It fails with entity.ContactInUseErr
	// if the phone or email is already held by another account, and with a
	// plain error if the number is already taken.
	CreateAccount(account entity.Account) error
	SetBalance(number string, balance decimal.Decimal) error
	ContactTaken(phone, email string) (bool, error)

	// Append adds a record to the ledger and returns its store-assigned id.
	Append(record entity.TransactionRecord) (uint64, error)
	// History returns up to limit records that reference the account as source
	// or counterparty, newest first.
	History(number string, limit int) ([]entity.TransactionRecord, error)
}

type store interface {
	// Atomic runs fn in a writable transaction. All writes commit if fn
	// returns nil, and are discarded otherwise.
	Atomic(fn func(Tx) error) error
	// ReadOnly runs fn against a consistent read snapshot.
	ReadOnly(fn func(Tx) error) error
}

type sessionRepository interface {
	Get(chatID int64) (entity.Session, error)
	Save(chatID int64, session entity.Session) error
	Clear(chatID int64) error
}

type idempotenceRepository interface {
	// MakeRecord returns true if it was first time to call this method with same id
	MakeRecord(string) (bool, error)
}
