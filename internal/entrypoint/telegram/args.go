package telegram

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	accountNumberRe = regexp.MustCompile(`^\d{5}$`)
	phoneRe         = regexp.MustCompile(`^\d{9,10}$`)
	emailRe         = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@.+\.[A-Za-z]{2,}$`)
	pinRe           = regexp.MustCompile(`^\d{4}$`)
	amountRe        = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

type openRequest struct {
	name  string
	phone string
	email string
	pin   string
}

// parseOpenArgs parses "name;phone;email;pin".
func parseOpenArgs(args string) (openRequest, error) {
	parts := strings.Split(args, ";")
	if len(parts) != 4 {
		return openRequest{}, errors.New("expected: /open name;phone;email;pin")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	request := openRequest{
		name:  parts[0],
		phone: parts[1],
		email: parts[2],
		pin:   parts[3],
	}

	if request.name == "" {
		return openRequest{}, errors.New("name must not be empty")
	}
	if !phoneRe.MatchString(request.phone) {
		return openRequest{}, errors.New("phone must be 9-10 digits")
	}
	if !emailRe.MatchString(request.email) {
		return openRequest{}, errors.New("invalid email address")
	}
	if !pinRe.MatchString(request.pin) {
		return openRequest{}, errors.New("pin must be exactly 4 digits")
	}

	return request, nil
}

func parseAccountNumber(s string) (string, error) {
	if !accountNumberRe.MatchString(s) {
		return "", fmt.Errorf("invalid account number %q: must be 5 digits", s)
	}
	return s, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if !amountRe.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero")
	}

	return amount, nil
}
