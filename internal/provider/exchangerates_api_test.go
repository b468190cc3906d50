package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currencyconverter/internal/metrics"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*ExchangeRatesAPI, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m := metrics.New()
	return NewExchangeRatesAPI(srv.URL, "secret", 5, nil, m), m
}

func TestExchangeRatesAPI_LatestURL(t *testing.T) {
	api := NewExchangeRatesAPI("http://example.test/", "k3y", 5, nil, nil)

	got := api.latestURL(NewRateQuery("EUR", "USD", "GBP"))

	assert.Equal(t, "http://example.test/v1/latest?access_key=k3y&base=EUR&symbols=USD%2CGBP", got)
	assert.Equal(t, "http://example.test/v1/symbols?access_key=k3y", api.symbolsURL())
}

func TestExchangeRatesAPI_Latest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api, m := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/latest", r.URL.Path)
			assert.Equal(t, "secret", r.URL.Query().Get("access_key"))
			assert.Equal(t, "EUR", r.URL.Query().Get("base"))
			assert.Equal(t, "USD", r.URL.Query().Get("symbols"))
			_, _ = w.Write([]byte(`{"success":true,"base":"EUR","date":"2024-05-01","rates":{"USD":1.1}}`))
		})

		resp, err := api.Latest(context.Background(), NewRateQuery("EUR", "USD"))

		require.NoError(t, err)
		assert.Nil(t, resp.Error)
		assert.Equal(t, 1.1, resp.Rates["USD"])
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("latest", "200")))
	})

	t.Run("provider error is returned as data", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"base_currency_access_restricted","type":"base_currency_access_restricted"}}`))
		})

		resp, err := api.Latest(context.Background(), NewRateQuery("USD", "EUR"))

		require.NoError(t, err)
		assert.Equal(t, RestrictedBaseCode, resp.ErrorCode())
		assert.Nil(t, resp.Rates)
	})

	t.Run("malformed body", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		})

		_, err := api.Latest(context.Background(), NewRateQuery("EUR", "USD"))

		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("server error without error object", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := api.Latest(context.Background(), NewRateQuery("EUR", "USD"))

		assert.ErrorIs(t, err, ErrProviderUnavailable)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("unreachable host does not leak key", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		m := metrics.New()
		api := NewExchangeRatesAPI(srv.URL, "topsecret", 1, nil, m)

		_, err := api.Latest(context.Background(), NewRateQuery("EUR", "USD"))

		require.ErrorIs(t, err, ErrProviderUnavailable)
		assert.NotContains(t, err.Error(), "topsecret")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("latest", "error")))
	})
}

func TestExchangeRatesAPI_EscapedKeyIsRedacted(t *testing.T) {
	const key = "s3cr3t key/+&="
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	api := NewExchangeRatesAPI(srv.URL, key, 1, nil, nil)

	_, err := api.Latest(context.Background(), NewRateQuery("EUR", "USD"))

	require.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotContains(t, err.Error(), key)
	assert.NotContains(t, err.Error(), url.QueryEscape(key))
	assert.Contains(t, err.Error(), "access_key=***")
}

func TestRedactKey(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		key  string
		want string
	}{
		{"raw key", "GET /v1/latest?access_key=abc: refused", "abc", "GET /v1/latest?access_key=***: refused"},
		{"escaped key", "GET /v1/latest?access_key=a+b%2Fc: refused", "a b/c", "GET /v1/latest?access_key=***: refused"},
		{"no key configured", "refused", "", "refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redactKey(errors.New(tt.msg), tt.key))
		})
	}
}

func TestExchangeRatesAPI_GetSymbols(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/symbols", r.URL.Path)
			_, _ = w.Write([]byte(`{"success":true,"symbols":{"EUR":"Euro","USD":"United States Dollar"}}`))
		})

		symbols, err := api.GetSymbols(context.Background())

		require.NoError(t, err)
		assert.Equal(t, map[string]string{"EUR": "Euro", "USD": "United States Dollar"}, symbols)
	})

	t.Run("provider error", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"invalid_access_key","info":"You have not supplied a valid API Access Key."}}`))
		})

		_, err := api.GetSymbols(context.Background())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "invalid_access_key", apiErr.Code)
	})

	t.Run("empty symbols", func(t *testing.T) {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"symbols":{}}`))
		})

		_, err := api.GetSymbols(context.Background())

		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})
}

func TestExchangeRatesAPI_ResolverEndToEnd(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("base") {
		case "USD":
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"base_currency_access_restricted"}}`))
		case "EUR":
			_, _ = w.Write([]byte(`{"success":true,"base":"EUR","rates":{"USD":0.8}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	rate, err := NewRateResolver(api, nil, nil).Resolve(context.Background(), "USD", "EUR")

	require.NoError(t, err)
	assert.InDelta(t, 1.25, rate, 1e-12)
}
