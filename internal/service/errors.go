package service

import (
	"errors"
	"strings"
)

// ErrInvalidInput indicates a conversion request with missing or malformed parameters.
var ErrInvalidInput = errors.New("invalid conversion input")

// ErrRateUnavailable indicates the conversion rate could not be resolved.
var ErrRateUnavailable = errors.New("conversion rate unavailable")

// ErrCatalogueUnavailable indicates no source could provide the currency list.
var ErrCatalogueUnavailable = errors.New("currency catalogue unavailable")

// IsValidCurrencyCode checks whether a string is a valid 3-letter currency code.
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
