package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrRestrictedBase means the plan forbids the requested base currency.
	ErrRestrictedBase = errors.New("base currency access restricted")

	// ErrProviderUnavailable covers transport failures and unreadable responses.
	ErrProviderUnavailable = errors.New("rate provider unavailable")

	// ErrUnknownCurrency is returned for any provider error other than the restricted base one.
	ErrUnknownCurrency = errors.New("currency rejected by provider")

	// ErrMissingRates means the response had no usable rate for the requested currency.
	ErrMissingRates = errors.New("missing rates in provider response")
)

// APIError carries an error reported by the provider in its response body.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	if e.Info != "" {
		return fmt.Sprintf("provider error %s: %s", e.Code, e.Info)
	}
	return "provider error " + e.Code
}

// Unwrap maps the provider code onto the package sentinels.
func (e *APIError) Unwrap() error {
	if e.Code == RestrictedBaseCode {
		return ErrRestrictedBase
	}
	return ErrUnknownCurrency
}

func apiErrorFrom(re *ResponseError) *APIError {
	return &APIError{Code: re.Code, Info: re.Info}
}
