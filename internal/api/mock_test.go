package api

import (
	"context"

	"currencyconverter/internal/service"
)

// mockConversionService implements service.ConversionServiceInterface for testing.
type mockConversionService struct {
	convertFunc func(ctx context.Context, from, to, amount string) (*service.ConversionResult, error)
}

func (m *mockConversionService) Convert(ctx context.Context, from, to, amount string) (*service.ConversionResult, error) {
	return m.convertFunc(ctx, from, to, amount)
}

// mockCurrencyService implements service.CurrencyServiceInterface for testing.
type mockCurrencyService struct {
	listFunc func(ctx context.Context) ([]service.Currency, error)
}

func (m *mockCurrencyService) ListCurrencies(ctx context.Context) ([]service.Currency, error) {
	return m.listFunc(ctx)
}

func (m *mockCurrencyService) SyncCatalogue(_ context.Context) (int, error) {
	return 0, nil // Not used in handler tests
}
