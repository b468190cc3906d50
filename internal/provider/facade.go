package provider

import (
	"context"
	"errors"
	"fmt"
)

var _ SymbolsProvider = (*SymbolsFacade)(nil)

// SymbolsFacade asks its sources in order and returns the first answer.
type SymbolsFacade struct {
	providers []SymbolsProvider
}

// NewSymbolsFacade creates a SymbolsFacade over the given sources.
func NewSymbolsFacade(providers ...SymbolsProvider) *SymbolsFacade {
	return &SymbolsFacade{
		providers: providers,
	}
}

// GetSymbols calls providers sequentially until one succeeds.
func (p *SymbolsFacade) GetSymbols(ctx context.Context) (map[string]string, error) {
	if len(p.providers) == 0 {
		return nil, fmt.Errorf("%w: no symbol sources configured", ErrProviderUnavailable)
	}

	var errs []error
	for _, prov := range p.providers {
		symbols, err := prov.GetSymbols(ctx)
		if err == nil {
			return symbols, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("all symbol sources failed: %w", errors.Join(errs...))
}
