//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"currencyconverter/internal/testkit"
)

// resetTestData empties the currency catalogue and flushes Redis.
func resetTestData(t *testing.T) {
	t.Helper()
	testkit.Global().Reset(t, "currencies")
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// staticSymbols is a SymbolsProvider that returns a fixed catalogue or a fixed error.
type staticSymbols struct {
	symbols map[string]string
	err     error
	calls   int
}

func (s *staticSymbols) GetSymbols(_ context.Context) (map[string]string, error) {
	s.calls++
	return s.symbols, s.err
}

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
