package usecase

import (
	"errors"

	"minibank/internal/entity"
	"minibank/internal/pin"
)

// MaxPINAttempts bounds PIN collection per invocation. The caller decides
// whether to prompt again after a failed invocation.
const MaxPINAttempts = 2

type Authorize struct {
	store store
}

func NewAuthorize(store store) *Authorize {
	return &Authorize{
		store: store,
	}
}

// Execute reports whether code is the PIN of the given account. Wrong PIN and
// unknown account both yield false; only store failures yield an error.
func (a *Authorize) Execute(number, code string) (bool, error) {
	var hash string
	err := a.store.ReadOnly(func(tx Tx) error {
		account, err := tx.Account(number)
		if err != nil {
			return err
		}
		hash = account.PINHash
		return nil
	})
	if errors.Is(err, entity.AccountNotFoundErr) {
		return false, nil
	}
	if err != nil {
		return false, wrapStore(err)
	}

	return pin.Verify(code, hash), nil
}

// ExecuteWithPrompt collects PINs from next and verifies them, stopping after
// the first match or MaxPINAttempts failures.
func (a *Authorize) ExecuteWithPrompt(number string, next func(attempt int) (string, error)) (bool, error) {
	for attempt := 1; attempt <= MaxPINAttempts; attempt++ {
		code, err := next(attempt)
		if err != nil {
			return false, err
		}

		ok, err := a.Execute(number, code)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}
