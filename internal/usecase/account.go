package usecase

import (
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"minibank/internal/entity"
	"minibank/internal/pin"
)

const (
	numberMin  = 10000
	numberSpan = 90000

	// allocAttempts caps the random draws for a free account number. With a
	// 90000-value space the cap is hit only when the space is effectively
	// full, which surfaces as entity.NumberSpaceExhaustedErr.
	allocAttempts = numberSpan

	DefaultHistoryLimit = 10
)

type OpenAccount struct {
	store store
}

func NewOpenAccount(store store) *OpenAccount {
	return &OpenAccount{
		store: store,
	}
}

// Execute creates an account with a fresh 5-digit number and a zero balance.
// Contact uniqueness, number allocation and the insert run in one transaction
// so two concurrent opens cannot race the same number, phone or email.
func (o *OpenAccount) Execute(name, phone, email, code string) (entity.Account, error) {
	hash, err := pin.Hash(code)
	if err != nil {
		return entity.Account{}, err
	}

	var account entity.Account
	err = o.store.Atomic(func(tx Tx) error {
		taken, err := tx.ContactTaken(phone, email)
		if err != nil {
			return err
		}
		if taken {
			return entity.ContactInUseErr
		}

		number, err := allocateNumber(tx)
		if err != nil {
			return err
		}

		account = entity.Account{
			Number:    number,
			Name:      name,
			Phone:     phone,
			Email:     email,
			PINHash:   hash,
			Balance:   decimal.Zero,
			CreatedAt: time.Now().UTC(),
		}
		return tx.CreateAccount(account)
	})
	if err != nil {
		return entity.Account{}, wrapStore(err)
	}

	return account, nil
}

// allocateNumber draws uniformly from [10000,99999] until it finds a number
// with no account, with a bounded number of retries.
func allocateNumber(tx Tx) (string, error) {
	for i := 0; i < allocAttempts; i++ {
		number := strconv.Itoa(numberMin + rand.Intn(numberSpan))

		_, err := tx.Account(number)
		if errors.Is(err, entity.AccountNotFoundErr) {
			return number, nil
		}
		if err != nil {
			return "", err
		}
	}

	return "", entity.NumberSpaceExhaustedErr
}

type GetBalance struct {
	store store
}

func NewGetBalance(store store) *GetBalance {
	return &GetBalance{
		store: store,
	}
}

func (g *GetBalance) Execute(number string) (entity.Account, error) {
	var account entity.Account
	err := g.store.ReadOnly(func(tx Tx) error {
		var err error
		account, err = tx.Account(number)
		return err
	})
	if err != nil {
		return entity.Account{}, wrapStore(err)
	}

	return account, nil
}

type GetHistory struct {
	store store
}

func NewGetHistory(store store) *GetHistory {
	return &GetHistory{
		store: store,
	}
}

// Execute returns the newest limit ledger records referencing the account as
// source or counterparty. A non-positive limit falls back to
// DefaultHistoryLimit.
func (g *GetHistory) Execute(number string, limit int) ([]entity.TransactionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var records []entity.TransactionRecord
	err := g.store.ReadOnly(func(tx Tx) error {
		if _, err := tx.Account(number); err != nil {
			return err
		}

		var err error
		records, err = tx.History(number, limit)
		return err
	})
	if err != nil {
		return nil, wrapStore(err)
	}

	return records, nil
}
