package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"currencyconverter/internal/config"
	"currencyconverter/internal/metrics"
	"currencyconverter/internal/provider"
)

// CatalogueStore persists the last known currency catalogue.
type CatalogueStore interface {
	UpsertSymbols(ctx context.Context, symbols map[string]string) (int, error)
	GetSymbols(ctx context.Context) (map[string]string, error)
}

// CurrencyServiceInterface defines the catalogue operations used by handlers and workers.
type CurrencyServiceInterface interface {
	ListCurrencies(ctx context.Context) ([]Currency, error)
	SyncCatalogue(ctx context.Context) (int, error)
}

// Currency is one entry of the catalogue.
type Currency struct {
	Code string
	Name string
}

// CurrencyService serves the currency catalogue from cache, the live symbol
// sources, or the stored copy, in that order.
type CurrencyService struct {
	live    provider.SymbolsProvider
	store   CatalogueStore
	cache   *provider.CachedSymbolsProvider
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewCurrencyService creates a CurrencyService. cache may be nil to disable caching.
func NewCurrencyService(live provider.SymbolsProvider, store CatalogueStore, cache *redis.Client, logger *zap.SugaredLogger, m *metrics.Metrics, cacheCfg config.CacheConfig) *CurrencyService {
	s := &CurrencyService{
		live:    live,
		store:   store,
		log:     logger,
		metrics: m,
	}
	ttl := time.Duration(cacheCfg.SymbolsTTLSec) * time.Second
	s.cache = provider.NewCachedSymbolsProvider(liveSource{s}, cache, ttl, logger, m).
		WithFallback(storedSource{s})
	return s
}

// ListCurrencies returns the catalogue sorted by code.
func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]Currency, error) {
	symbols, err := s.cache.GetSymbols(ctx)
	if err != nil {
		s.log.Errorw("Currency catalogue unavailable", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCatalogueUnavailable, err)
	}
	return sortedCurrencies(symbols), nil
}

// SyncCatalogue refreshes the stored and cached catalogue from the live sources.
func (s *CurrencyService) SyncCatalogue(ctx context.Context) (int, error) {
	symbols, err := s.live.GetSymbols(ctx)
	if err != nil {
		s.log.Errorw("Catalogue sync failed", "error", err)
		return 0, fmt.Errorf("%w: %w", ErrCatalogueUnavailable, err)
	}

	n, err := s.store.UpsertSymbols(ctx, symbols)
	if err != nil {
		s.log.Errorw("Failed to persist catalogue", "error", err)
		return 0, err
	}

	s.cache.Store(ctx, symbols)
	s.log.Infow("Catalogue synced", "currencies", n)
	return n, nil
}

// fetchLive asks the live sources and persists their answer so the stored
// catalogue stays fresh.
func (s *CurrencyService) fetchLive(ctx context.Context) (map[string]string, error) {
	symbols, err := s.live.GetSymbols(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCatalogueLookup("provider")
	if _, err := s.store.UpsertSymbols(ctx, symbols); err != nil {
		s.log.Warnw("Failed to persist catalogue", "error", err)
	}
	return symbols, nil
}

// fetchStored reads the last synced catalogue from Postgres.
func (s *CurrencyService) fetchStored(ctx context.Context) (map[string]string, error) {
	symbols, err := s.store.GetSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("stored catalogue: %w", err)
	}
	s.metrics.ObserveCatalogueLookup("database")
	return symbols, nil
}

// liveSource and storedSource adapt CurrencyService to provider.SymbolsProvider
// so the Redis decorator can sit in front of them. Only liveSource answers are cached.
type liveSource struct {
	s *CurrencyService
}

func (c liveSource) GetSymbols(ctx context.Context) (map[string]string, error) {
	return c.s.fetchLive(ctx)
}

type storedSource struct {
	s *CurrencyService
}

func (c storedSource) GetSymbols(ctx context.Context) (map[string]string, error) {
	return c.s.fetchStored(ctx)
}

func sortedCurrencies(symbols map[string]string) []Currency {
	out := make([]Currency, 0, len(symbols))
	for code, name := range symbols {
		out = append(out, Currency{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
