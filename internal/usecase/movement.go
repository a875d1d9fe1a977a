package usecase

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"minibank/internal/entity"
)

// Money movement. Each operation runs its writes inside one store transaction:
// balance update(s) and the matching ledger append commit together or not at
// all. The store serializes writers, so a read-then-write on a balance can
// never interleave with another operation on the same account.

var domainErrs = []error{
	entity.AccountNotFoundErr,
	entity.InvalidAmountErr,
	entity.InsufficientFundsErr,
	entity.SelfTransferErr,
	entity.UnauthorizedErr,
	entity.ContactInUseErr,
	entity.NumberSpaceExhaustedErr,
}

// wrapStore passes domain errors through untouched and folds everything else
// into entity.PersistenceErr.
func wrapStore(err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range domainErrs {
		if errors.Is(err, domain) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", entity.PersistenceErr, err)
}

type Deposit struct {
	store store
}

func NewDeposit(store store) *Deposit {
	return &Deposit{
		store: store,
	}
}

func (d *Deposit) Execute(number string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, entity.InvalidAmountErr
	}

	var newBalance decimal.Decimal
	err := d.store.Atomic(func(tx Tx) error {
		account, err := tx.Account(number)
		if err != nil {
			return err
		}

		newBalance = account.Balance.Add(amount)
		if err := tx.SetBalance(number, newBalance); err != nil {
			return err
		}

		_, err = tx.Append(entity.TransactionRecord{
			Account: number,
			Kind:    entity.KindDeposit,
			Amount:  amount,
		})
		return err
	})
	if err != nil {
		return decimal.Zero, wrapStore(err)
	}

	return newBalance, nil
}

type Withdraw struct {
	store store
	auth  *Authorize
}

func NewWithdraw(store store, auth *Authorize) *Withdraw {
	return &Withdraw{
		store: store,
		auth:  auth,
	}
}

func (w *Withdraw) Execute(number, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, entity.InvalidAmountErr
	}

	if err := requireAccount(w.store, number); err != nil {
		return decimal.Zero, err
	}

	ok, err := w.auth.Execute(number, code)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, entity.UnauthorizedErr
	}

	var newBalance decimal.Decimal
	err = w.store.Atomic(func(tx Tx) error {
		account, err := tx.Account(number)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(amount) {
			return fmt.Errorf("%w: current balance is %s", entity.InsufficientFundsErr, account.Balance.StringFixed(2))
		}

		newBalance = account.Balance.Sub(amount)
		if err := tx.SetBalance(number, newBalance); err != nil {
			return err
		}

		_, err = tx.Append(entity.TransactionRecord{
			Account: number,
			Kind:    entity.KindWithdraw,
			Amount:  amount,
		})
		return err
	})
	if err != nil {
		return decimal.Zero, wrapStore(err)
	}

	return newBalance, nil
}

func requireAccount(s store, number string) error {
	err := s.ReadOnly(func(tx Tx) error {
		_, err := tx.Account(number)
		return err
	})
	return wrapStore(err)
}

type Transfer struct {
	store store
	auth  *Authorize
}

func NewTransfer(store store, auth *Authorize) *Transfer {
	return &Transfer{
		store: store,
		auth:  auth,
	}
}

// Execute moves amount from one account to another and appends a single
// TRANSFER record. The debit is written before the credit; both land in the
// same transaction, so the total of the two balances is conserved exactly
// when the unit commits.
func (t *Transfer) Execute(from, to, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, entity.InvalidAmountErr
	}
	if from == to {
		return decimal.Zero, entity.SelfTransferErr
	}

	if err := requireAccount(t.store, from); err != nil {
		return decimal.Zero, err
	}
	if err := requireAccount(t.store, to); err != nil {
		return decimal.Zero, err
	}

	ok, err := t.auth.Execute(from, code)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, entity.UnauthorizedErr
	}

	var newSenderBalance decimal.Decimal
	err = t.store.Atomic(func(tx Tx) error {
		sender, err := tx.Account(from)
		if err != nil {
			return err
		}
		if sender.Balance.LessThan(amount) {
			return fmt.Errorf("%w: current balance is %s", entity.InsufficientFundsErr, sender.Balance.StringFixed(2))
		}

		newSenderBalance = sender.Balance.Sub(amount)
		if err := tx.SetBalance(from, newSenderBalance); err != nil {
			return err
		}

		recipient, err := tx.Account(to)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(to, recipient.Balance.Add(amount)); err != nil {
			return err
		}

		_, err = tx.Append(entity.TransactionRecord{
			Account:      from,
			Kind:         entity.KindTransfer,
			Amount:       amount,
			Counterparty: to,
		})
		return err
	})
	if err != nil {
		return decimal.Zero, wrapStore(err)
	}

	return newSenderBalance, nil
}
