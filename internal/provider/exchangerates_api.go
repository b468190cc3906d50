package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"currencyconverter/internal/metrics"
)

var (
	_ RatesAPI        = (*ExchangeRatesAPI)(nil)
	_ SymbolsProvider = (*ExchangeRatesAPI)(nil)
)

const defaultExchangeRatesURL = "http://api.exchangeratesapi.io"

// ExchangeRatesAPI is a client for the exchangeratesapi.io v1 endpoints.
// It only holds static configuration and is safe for concurrent use.
type ExchangeRatesAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExchangeRatesAPI creates a client for the given host and access key.
func NewExchangeRatesAPI(baseURL, apiKey string, timeoutSec int, logger *zap.SugaredLogger, m *metrics.Metrics) *ExchangeRatesAPI {
	if baseURL == "" {
		baseURL = defaultExchangeRatesURL
	}
	return &ExchangeRatesAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   time.Duration(timeoutSec) * time.Second,
			Transport: newLoggingTransport(http.DefaultTransport, logger, m),
		},
	}
}

// symbolsURL forms the URL listing every supported currency.
func (p *ExchangeRatesAPI) symbolsURL() string {
	return fmt.Sprintf("%s/v1/symbols?access_key=%s", p.baseURL, url.QueryEscape(p.apiKey))
}

// latestURL forms the URL for the latest rates of q.
func (p *ExchangeRatesAPI) latestURL(q RateQuery) string {
	return fmt.Sprintf("%s/v1/latest?access_key=%s&base=%s&symbols=%s",
		p.baseURL,
		url.QueryEscape(p.apiKey),
		url.QueryEscape(q.Base),
		url.QueryEscape(q.Symbols()),
	)
}

type symbolsResponse struct {
	Symbols map[string]string `json:"symbols"`
	Error   *ResponseError    `json:"error,omitempty"`
}

// Latest fetches the latest rates for q. A provider-side error comes back inside
// the response, not as a Go error; the error return is reserved for
// ErrProviderUnavailable.
func (p *ExchangeRatesAPI) Latest(ctx context.Context, q RateQuery) (*RateResponse, error) {
	var result RateResponse
	if err := p.get(ctx, p.latestURL(q), &result, func() bool { return result.Error != nil }); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSymbols fetches the currencies the provider knows about.
func (p *ExchangeRatesAPI) GetSymbols(ctx context.Context) (map[string]string, error) {
	var result symbolsResponse
	if err := p.get(ctx, p.symbolsURL(), &result, func() bool { return result.Error != nil }); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, apiErrorFrom(result.Error)
	}
	if len(result.Symbols) == 0 {
		return nil, fmt.Errorf("%w: empty symbols", ErrProviderUnavailable)
	}
	return result.Symbols, nil
}

// get issues a GET and decodes the JSON body into out. Non-2xx responses are
// accepted only when hasError reports that the body carried an error object.
func (p *ExchangeRatesAPI) get(ctx context.Context, reqURL string, out any, hasError func() bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: request creation failed: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, redactKey(err, p.apiKey))
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: status %d, undecodable body: %v", ErrProviderUnavailable, resp.StatusCode, err)
	}
	if resp.StatusCode/100 != 2 && !hasError() {
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, truncate(string(body), 200))
	}
	return nil
}

// redactKey strips the access key from errors that echo the request URL,
// both as written and in its query-escaped form.
func redactKey(err error, key string) string {
	msg := err.Error()
	if key == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(key), "***")
	return strings.ReplaceAll(msg, key, "***")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
