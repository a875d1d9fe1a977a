package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account. Number, Name, Phone and Email are immutable after
// creation; Balance changes only through the money-movement operations and is
// never negative.
type Account struct {
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
	PINHash   string          `json:"pin_hash"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}
