package provider

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"currencyconverter/internal/metrics"
)

// RateResolver turns a currency pair into a conversion rate using the rates API
// as its only data source. It keeps no state between calls.
type RateResolver struct {
	api     RatesAPI
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewRateResolver creates a RateResolver. logger and m may be nil.
func NewRateResolver(api RatesAPI, logger *zap.SugaredLogger, m *metrics.Metrics) *RateResolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RateResolver{api: api, log: logger, metrics: m}
}

// Resolve returns how many units of target one unit of source buys.
//
// Identical codes resolve to 1 without touching the network. When the plan does
// not allow source as base, the inverse pair is queried once and its rate
// inverted. The result is always positive and finite when err is nil.
func (r *RateResolver) Resolve(ctx context.Context, source, target string) (float64, error) {
	if source == target {
		r.metrics.ObserveResolution(metrics.OutcomeSame)
		return 1.0, nil
	}

	resp, err := r.api.Latest(ctx, NewRateQuery(source, target))
	if err != nil {
		return r.fail(source, target, err)
	}

	key, inverse, outcome := target, false, metrics.OutcomeDirect
	if resp.ErrorCode() == RestrictedBaseCode {
		r.log.Infow("Base currency restricted, querying inverse rate", "source", source, "target", target)
		key, inverse, outcome = source, true, metrics.OutcomeInverse

		resp, err = r.api.Latest(ctx, NewRateQuery(target, source))
		if err != nil {
			return r.fail(source, target, err)
		}
	}

	rate, err := rateFrom(resp, key)
	if err != nil {
		return r.fail(source, target, err)
	}
	if inverse {
		rate = 1 / rate
		if !usableRate(rate) {
			return r.fail(source, target, fmt.Errorf("%w: inverse of %s/%s overflows", ErrMissingRates, target, source))
		}
	}

	r.metrics.ObserveResolution(outcome)
	return rate, nil
}

func (r *RateResolver) fail(source, target string, err error) (float64, error) {
	outcome := metrics.OutcomeFailed
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		outcome = metrics.OutcomeRejected
	}
	r.metrics.ObserveResolution(outcome)
	r.log.Warnw("Rate resolution failed", "source", source, "target", target, "error", err)
	return 0, fmt.Errorf("resolve %s/%s: %w", source, target, err)
}

// rateFrom reads rates[key] from a response, mapping every unusable shape to an error.
func rateFrom(resp *RateResponse, key string) (float64, error) {
	if resp == nil {
		return 0, fmt.Errorf("%w: empty response", ErrMissingRates)
	}
	if resp.Error != nil {
		return 0, apiErrorFrom(resp.Error)
	}
	if resp.Rates == nil {
		return 0, fmt.Errorf("%w: no rates field", ErrMissingRates)
	}
	rate, ok := resp.Rates[key]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", ErrMissingRates, key)
	}
	if !usableRate(rate) {
		return 0, fmt.Errorf("%w: unusable rate %v for %s", ErrMissingRates, rate, key)
	}
	return rate, nil
}

func usableRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
