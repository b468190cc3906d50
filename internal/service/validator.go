package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts outside these bounds are rejected before any arithmetic, so a
// request like amount=1e1000000000 cannot make rounding allocate huge numbers.
const (
	maxAmountIntegerDigits  = 30
	maxAmountFractionDigits = 18
)

// ConversionRequest is a validated, normalized conversion request.
type ConversionRequest struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// ParseConversionRequest validates raw query values. Codes are trimmed and
// upper-cased; amount must be a finite decimal number.
func ParseConversionRequest(from, to, amount string) (ConversionRequest, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	amount = strings.TrimSpace(amount)

	switch {
	case from == "" || to == "" || amount == "":
		return ConversionRequest{}, fmt.Errorf("%w: from, to and amount are required", ErrInvalidInput)
	case !IsValidCurrencyCode(from):
		return ConversionRequest{}, fmt.Errorf("%w: invalid currency code %q", ErrInvalidInput, from)
	case !IsValidCurrencyCode(to):
		return ConversionRequest{}, fmt.Errorf("%w: invalid currency code %q", ErrInvalidInput, to)
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return ConversionRequest{}, fmt.Errorf("%w: amount must be a number", ErrInvalidInput)
	}
	if amt.IsZero() {
		// 0e1000000000 is zero, but its exponent would still be carried into rounding.
		amt = decimal.Zero
	}
	if err := checkAmountRange(amt); err != nil {
		return ConversionRequest{}, err
	}

	return ConversionRequest{From: from, To: to, Amount: amt}, nil
}

// checkAmountRange bounds the integer and fractional digits of amt.
// The decimal value is coefficient * 10^exponent.
func checkAmountRange(amt decimal.Decimal) error {
	if amt.IsZero() {
		return nil
	}
	exp := int64(amt.Exponent())
	if exp < -maxAmountFractionDigits {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidInput, maxAmountFractionDigits)
	}
	if int64(amt.NumDigits())+exp > maxAmountIntegerDigits {
		return fmt.Errorf("%w: amount is too large", ErrInvalidInput)
	}
	return nil
}
