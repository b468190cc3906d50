package provider

import (
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	"currencyconverter/internal/metrics"
)

// loggingTransport logs and measures every outbound request. The query string is
// left out of logs because it carries the access key.
type loggingTransport struct {
	next    http.RoundTripper
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

func newLoggingTransport(next http.RoundTripper, logger *zap.SugaredLogger, m *metrics.Metrics) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &loggingTransport{next: next, log: logger, metrics: m}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	endpoint := path.Base(req.URL.Path)

	resp, err := t.next.RoundTrip(req)
	took := time.Since(start)
	if err != nil {
		t.metrics.ObserveProviderRequest(endpoint, 0, took)
		t.log.Warnw("Provider request failed",
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"duration_ms", took.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	t.metrics.ObserveProviderRequest(endpoint, resp.StatusCode, took)
	t.log.Debugw("Provider request",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", took.Milliseconds(),
	)
	return resp, nil
}
