package provider

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"currencyconverter/internal/metrics"
)

func restricted() *RateResponse {
	return &RateResponse{Error: &ResponseError{Code: RestrictedBaseCode}}
}

func TestRateResolver_SameCurrency(t *testing.T) {
	for _, code := range []string{"USD", "EUR", "JPY", "XXX"} {
		t.Run(code, func(t *testing.T) {
			api := new(MockRatesAPI)
			r := NewRateResolver(api, nil, nil)

			rate, err := r.Resolve(context.Background(), code, code)

			require.NoError(t, err)
			assert.Equal(t, 1.0, rate)
			api.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything)
		})
	}
}

func TestRateResolver_Direct(t *testing.T) {
	api := new(MockRatesAPI)
	api.On("Latest", mock.Anything, RateQuery{Base: "EUR", Targets: []string{"USD"}}).
		Return(&RateResponse{Base: "EUR", Rates: map[string]float64{"USD": 1.1}}, nil).Once()

	rate, err := NewRateResolver(api, nil, nil).Resolve(context.Background(), "EUR", "USD")

	require.NoError(t, err)
	assert.Equal(t, 1.1, rate)
	api.AssertExpectations(t)
}

func TestRateResolver_RestrictedBaseFallsBackToInverse(t *testing.T) {
	api := new(MockRatesAPI)
	api.On("Latest", mock.Anything, RateQuery{Base: "USD", Targets: []string{"EUR"}}).
		Return(restricted(), nil).Once()
	api.On("Latest", mock.Anything, RateQuery{Base: "EUR", Targets: []string{"USD"}}).
		Return(&RateResponse{Base: "EUR", Rates: map[string]float64{"USD": 0.91}}, nil).Once()

	m := metrics.New()
	rate, err := NewRateResolver(api, nil, m).Resolve(context.Background(), "USD", "EUR")

	require.NoError(t, err)
	assert.InDelta(t, 1/0.91, rate, 1e-12)
	assert.InDelta(t, 1.0989, rate, 1e-4)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateResolutionsTotal.WithLabelValues(metrics.OutcomeInverse)))
	api.AssertExpectations(t)
}

func TestRateResolver_InverseReadsSourceKey(t *testing.T) {
	api := new(MockRatesAPI)
	api.On("Latest", mock.Anything, RateQuery{Base: "USD", Targets: []string{"EUR"}}).
		Return(restricted(), nil).Once()
	// The fallback response is keyed by the original source, not the target.
	api.On("Latest", mock.Anything, RateQuery{Base: "EUR", Targets: []string{"USD"}}).
		Return(&RateResponse{Rates: map[string]float64{"EUR": 1, "USD": 0.5}}, nil).Once()

	rate, err := NewRateResolver(api, nil, nil).Resolve(context.Background(), "USD", "EUR")

	require.NoError(t, err)
	assert.Equal(t, 2.0, rate)
}

func TestRateResolver_NonRestrictedErrorSkipsFallback(t *testing.T) {
	api := new(MockRatesAPI)
	api.On("Latest", mock.Anything, RateQuery{Base: "ABC", Targets: []string{"USD"}}).
		Return(&RateResponse{Error: &ResponseError{Code: "invalid_base_currency"}}, nil).Once()

	m := metrics.New()
	rate, err := NewRateResolver(api, nil, m).Resolve(context.Background(), "ABC", "USD")

	require.Error(t, err)
	assert.Zero(t, rate)
	assert.ErrorIs(t, err, ErrUnknownCurrency)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_base_currency", apiErr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateResolutionsTotal.WithLabelValues(metrics.OutcomeRejected)))
	api.AssertNumberOfCalls(t, "Latest", 1)
}

func TestRateResolver_Failures(t *testing.T) {
	direct := RateQuery{Base: "USD", Targets: []string{"EUR"}}
	inverse := RateQuery{Base: "EUR", Targets: []string{"USD"}}

	tests := []struct {
		name    string
		setup   func(api *MockRatesAPI)
		wantErr error
		calls   int
	}{
		{
			name: "provider unreachable",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(nil, ErrProviderUnavailable)
			},
			wantErr: ErrProviderUnavailable,
			calls:   1,
		},
		{
			name: "no rates and no error",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(&RateResponse{}, nil)
			},
			wantErr: ErrMissingRates,
			calls:   1,
		},
		{
			name: "rates without requested key",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(&RateResponse{Rates: map[string]float64{"GBP": 0.8}}, nil)
			},
			wantErr: ErrMissingRates,
			calls:   1,
		},
		{
			name: "zero rate",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(&RateResponse{Rates: map[string]float64{"EUR": 0}}, nil)
			},
			wantErr: ErrMissingRates,
			calls:   1,
		},
		{
			name: "fallback unreachable",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(restricted(), nil)
				api.On("Latest", mock.Anything, inverse).Return(nil, ErrProviderUnavailable)
			},
			wantErr: ErrProviderUnavailable,
			calls:   2,
		},
		{
			name: "fallback missing rates",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(restricted(), nil)
				api.On("Latest", mock.Anything, inverse).Return(&RateResponse{}, nil)
			},
			wantErr: ErrMissingRates,
			calls:   2,
		},
		{
			name: "fallback errors",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(restricted(), nil)
				api.On("Latest", mock.Anything, inverse).Return(&RateResponse{Error: &ResponseError{Code: "invalid_currency_codes"}}, nil)
			},
			wantErr: ErrUnknownCurrency,
			calls:   2,
		},
		{
			name: "fallback restricted too",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(restricted(), nil)
				api.On("Latest", mock.Anything, inverse).Return(restricted(), nil)
			},
			wantErr: ErrRestrictedBase,
			calls:   2,
		},
		{
			name: "inverse overflows",
			setup: func(api *MockRatesAPI) {
				api.On("Latest", mock.Anything, direct).Return(restricted(), nil)
				api.On("Latest", mock.Anything, inverse).Return(&RateResponse{Rates: map[string]float64{"USD": math.SmallestNonzeroFloat64}}, nil)
			},
			wantErr: ErrMissingRates,
			calls:   2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := new(MockRatesAPI)
			tc.setup(api)

			rate, err := NewRateResolver(api, nil, nil).Resolve(context.Background(), "USD", "EUR")

			require.Error(t, err)
			assert.Zero(t, rate)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
			api.AssertNumberOfCalls(t, "Latest", tc.calls)
		})
	}
}

func TestNewRateQuery_DedupesTargets(t *testing.T) {
	q := NewRateQuery("EUR", "USD", "GBP", "USD")

	assert.Equal(t, []string{"USD", "GBP"}, q.Targets)
	assert.Equal(t, "USD,GBP", q.Symbols())
}
