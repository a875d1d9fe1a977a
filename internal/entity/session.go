package entity

import (
	"errors"

	"github.com/shopspring/decimal"
)

var SessionNotFoundErr = errors.New("session not found")

// Pending operation names for a bot session.
const (
	PendingWithdraw = "withdraw"
	PendingTransfer = "transfer"
	PendingBalance  = "balance"
	PendingHistory  = "history"
)

// Session is the per-chat conversation state of the bot: a command that still
// needs a PIN is parked here until the next plain-text reply delivers one.
type Session struct {
	ChatID       int64           `json:"chatID"`
	Pending      string          `json:"pending,omitempty"`
	Account      string          `json:"account,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Attempts     int             `json:"attempts"`
}
