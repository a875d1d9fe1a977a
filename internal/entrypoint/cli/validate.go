package cli

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Input formats accepted at the prompts. Everything else is re-asked.
var (
	accountNumberRe = regexp.MustCompile(`^\d{5}$`)
	phoneRe         = regexp.MustCompile(`^\d{9,10}$`)
	emailRe         = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@.+\.[A-Za-z]{2,}$`)
	pinRe           = regexp.MustCompile(`^\d{4}$`)
	amountRe        = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

func validAccountNumber(s string) bool { return accountNumberRe.MatchString(s) }
func validPhone(s string) bool         { return phoneRe.MatchString(s) }
func validEmail(s string) bool         { return emailRe.MatchString(s) }
func validPIN(s string) bool           { return pinRe.MatchString(s) }

// parseAmount accepts a positive amount with at most two decimal places.
func parseAmount(s string) (decimal.Decimal, bool) {
	if !amountRe.MatchString(s) {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(s)
	if err != nil || amount.Sign() <= 0 {
		return decimal.Zero, false
	}

	return amount, true
}
