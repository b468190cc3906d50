package provider

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRatesAPI struct {
	mock.Mock
}

func (m *MockRatesAPI) Latest(ctx context.Context, q RateQuery) (*RateResponse, error) {
	args := m.Called(ctx, q)
	resp, _ := args.Get(0).(*RateResponse)
	return resp, args.Error(1)
}

type MockSymbolsProvider struct {
	mock.Mock
}

func (m *MockSymbolsProvider) GetSymbols(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	symbols, _ := args.Get(0).(map[string]string)
	return symbols, args.Error(1)
}
