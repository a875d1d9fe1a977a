package entity

import "errors"

// Domain errors. Every operation reports one of these; callers branch with
// errors.Is. PersistenceErr wraps store-level failures after the atomic unit
// has been rolled back and is the only kind safe to retry as-is.
var (
	AccountNotFoundErr      = errors.New("account not found")
	InvalidAmountErr        = errors.New("amount must be greater than zero")
	InsufficientFundsErr    = errors.New("insufficient balance")
	SelfTransferErr         = errors.New("cannot transfer to the same account")
	UnauthorizedErr         = errors.New("pin verification failed")
	ContactInUseErr         = errors.New("phone or email already in use")
	NumberSpaceExhaustedErr = errors.New("no free account number left")
	PersistenceErr          = errors.New("persistence failure")
)
