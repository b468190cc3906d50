package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"currencyconverter/internal/metrics"
)

var _ SymbolsProvider = (*FrankfurterProvider)(nil)

// FrankfurterProvider lists currencies from the Frankfurter API. It needs no key,
// which makes it a useful second source for the catalogue.
type FrankfurterProvider struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurterProvider creates a new FrankfurterProvider.
func NewFrankfurterProvider(baseURL string, timeoutSec int, logger *zap.SugaredLogger, m *metrics.Metrics) *FrankfurterProvider {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &FrankfurterProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   time.Duration(timeoutSec) * time.Second,
			Transport: newLoggingTransport(http.DefaultTransport, logger, m),
		},
	}
}

// GetSymbols retrieves the code to name mapping of every currency Frankfurter quotes.
func (p *FrankfurterProvider) GetSymbols(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/currencies", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("frankfurter API request creation failed: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: frankfurter: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: frankfurter returned status %d: %s", ErrProviderUnavailable, resp.StatusCode, string(body))
	}

	var result map[string]string
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode frankfurter response: %v", ErrProviderUnavailable, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: frankfurter returned no currencies", ErrProviderUnavailable)
	}
	return result, nil
}
