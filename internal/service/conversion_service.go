// Package service implements currency conversion and the currency catalogue.
package service

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateResolver resolves the conversion rate of a currency pair.
type RateResolver interface {
	Resolve(ctx context.Context, source, target string) (float64, error)
}

// ConversionServiceInterface defines the conversion operation exposed to handlers.
type ConversionServiceInterface interface {
	Convert(ctx context.Context, from, to, amount string) (*ConversionResult, error)
}

// ConversionResult is the outcome of a successful conversion.
type ConversionResult struct {
	From            string
	To              string
	Amount          decimal.Decimal
	Rate            float64
	ConvertedAmount decimal.Decimal
}

// ConversionService multiplies amounts by resolved rates.
type ConversionService struct {
	resolver  RateResolver
	log       *zap.SugaredLogger
	precision int32
}

// NewConversionService creates a ConversionService rounding results to precision decimal places.
func NewConversionService(resolver RateResolver, logger *zap.SugaredLogger, precision int32) *ConversionService {
	return &ConversionService{
		resolver:  resolver,
		log:       logger,
		precision: precision,
	}
}

// Convert validates the request, resolves the rate and converts amount.
// Same-currency requests return the amount untouched.
func (s *ConversionService) Convert(ctx context.Context, from, to, amount string) (*ConversionResult, error) {
	req, err := ParseConversionRequest(from, to, amount)
	if err != nil {
		return nil, err
	}

	if req.From == req.To {
		return &ConversionResult{
			From:            req.From,
			To:              req.To,
			Amount:          req.Amount,
			Rate:            1,
			ConvertedAmount: req.Amount,
		}, nil
	}

	rate, err := s.resolver.Resolve(ctx, req.From, req.To)
	if err != nil {
		s.log.Errorw("Rate resolution failed", "from", req.From, "to", req.To, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRateUnavailable, err)
	}

	converted := req.Amount.Mul(decimal.NewFromFloat(rate)).Round(s.precision)
	if f := converted.InexactFloat64(); math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: converted amount out of range", ErrInvalidInput)
	}
	s.log.Debugw("Converted amount", "from", req.From, "to", req.To, "rate", rate, "amount", req.Amount, "converted", converted)

	return &ConversionResult{
		From:            req.From,
		To:              req.To,
		Amount:          req.Amount,
		Rate:            rate,
		ConvertedAmount: converted,
	}, nil
}
