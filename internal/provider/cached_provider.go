package provider

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"currencyconverter/internal/metrics"
)

// SymbolsCacheKey is the Redis hash holding the cached catalogue, code -> name.
const SymbolsCacheKey = "currencies:{symbols}"

// CachedSymbolsProvider wraps a SymbolsProvider with a Redis read-through cache.
// Only the currency catalogue is cached; rates never are.
type CachedSymbolsProvider struct {
	provider SymbolsProvider
	fallback SymbolsProvider
	cache    *redis.Client
	ttl      time.Duration
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
}

// NewCachedSymbolsProvider creates a new CachedSymbolsProvider.
func NewCachedSymbolsProvider(provider SymbolsProvider, cache *redis.Client, ttl time.Duration, logger *zap.SugaredLogger, m *metrics.Metrics) *CachedSymbolsProvider {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedSymbolsProvider{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		log:      logger,
		metrics:  m,
	}
}

// Cached returns the cached catalogue, if any.
func (p *CachedSymbolsProvider) Cached(ctx context.Context) (map[string]string, bool) {
	if p.cache == nil {
		return nil, false
	}
	vals, err := p.cache.HGetAll(ctx, SymbolsCacheKey).Result()
	if err != nil || len(vals) == 0 {
		return nil, false
	}
	return vals, true
}

// WithFallback sets a source consulted when the provider fails. Its answers
// are served but never cached, so the next lookup retries the provider.
func (p *CachedSymbolsProvider) WithFallback(fallback SymbolsProvider) *CachedSymbolsProvider {
	p.fallback = fallback
	return p
}

// GetSymbols attempts to read the catalogue from cache before calling the underlying provider.
func (p *CachedSymbolsProvider) GetSymbols(ctx context.Context) (map[string]string, error) {
	if symbols, ok := p.Cached(ctx); ok {
		p.metrics.ObserveCatalogueLookup("cache")
		return symbols, nil
	}

	symbols, err := p.provider.GetSymbols(ctx)
	if err == nil {
		p.Store(ctx, symbols)
		return symbols, nil
	}
	if p.fallback == nil {
		return nil, err
	}

	p.log.Warnw("Symbols provider failed, using uncached fallback", "error", err)
	symbols, fbErr := p.fallback.GetSymbols(ctx)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return symbols, nil
}

// Store replaces the cached catalogue. Cache errors are logged, never returned.
func (p *CachedSymbolsProvider) Store(ctx context.Context, symbols map[string]string) {
	if p.cache == nil || len(symbols) == 0 {
		return
	}

	fields := make([]any, 0, len(symbols)*2)
	for code, name := range symbols {
		fields = append(fields, code, name)
	}

	pipe := p.cache.TxPipeline()
	pipe.Del(ctx, SymbolsCacheKey)
	pipe.HSet(ctx, SymbolsCacheKey, fields...)
	pipe.Expire(ctx, SymbolsCacheKey, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		p.log.Warnw("Failed to update symbols cache", "key", SymbolsCacheKey, "error", err)
	}
}

var _ SymbolsProvider = (*CachedSymbolsProvider)(nil)
