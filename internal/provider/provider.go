// Package provider talks to the third-party exchange rates API and resolves conversion rates.
package provider

import (
	"context"
	"strings"
)

// RestrictedBaseCode is the provider error code returned when the caller's plan
// cannot use the requested currency as base.
const RestrictedBaseCode = "base_currency_access_restricted"

// RateQuery asks the provider for the rates of Targets quoted against Base.
type RateQuery struct {
	Base    string
	Targets []string
}

// NewRateQuery builds a RateQuery, dropping duplicate targets while keeping their order.
func NewRateQuery(base string, targets ...string) RateQuery {
	seen := make(map[string]struct{}, len(targets))
	uniq := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		uniq = append(uniq, t)
	}
	return RateQuery{Base: base, Targets: uniq}
}

// Symbols renders the targets the way the API expects them: comma separated.
func (q RateQuery) Symbols() string {
	return strings.Join(q.Targets, ",")
}

// ResponseError is the error object embedded in a failed API response.
type ResponseError struct {
	Code string `json:"code"`
	Type string `json:"type,omitempty"`
	Info string `json:"info,omitempty"`
}

// RateResponse is the body of the latest rates endpoint. Exactly one of Rates
// and Error is expected to be populated.
type RateResponse struct {
	Base  string             `json:"base,omitempty"`
	Date  string             `json:"date,omitempty"`
	Rates map[string]float64 `json:"rates,omitempty"`
	Error *ResponseError     `json:"error,omitempty"`
}

// ErrorCode returns the provider error code, or "" when the response carries no error.
func (r *RateResponse) ErrorCode() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// RatesAPI fetches raw rate responses from the remote provider.
type RatesAPI interface {
	Latest(ctx context.Context, q RateQuery) (*RateResponse, error)
}

// SymbolsProvider returns the currencies known to a source, keyed by code.
type SymbolsProvider interface {
	GetSymbols(ctx context.Context) (map[string]string, error)
}
