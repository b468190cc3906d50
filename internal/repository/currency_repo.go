package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrEmptyCatalogue is returned when no currency has been stored yet.
var ErrEmptyCatalogue = errors.New("currency catalogue is empty")

// Currency is a row of the currencies table.
type Currency struct {
	Code      string
	Name      string
	UpdatedAt time.Time
}

// CurrencyRepository defines DB operations for the currency catalogue.
type CurrencyRepository interface {
	UpsertSymbols(ctx context.Context, symbols map[string]string) (int, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
	GetSymbols(ctx context.Context) (map[string]string, error)
}

// PostgresCurrencyRepository is an implementation of CurrencyRepository using PostgreSQL.
type PostgresCurrencyRepository struct {
	db *sql.DB
}

// NewPostgresCurrencyRepository creates a new PostgresCurrencyRepository.
func NewPostgresCurrencyRepository(db *sql.DB) *PostgresCurrencyRepository {
	return &PostgresCurrencyRepository{db: db}
}

// UpsertSymbols inserts or renames every currency in symbols within one
// transaction and returns how many rows were written. Currencies missing from
// symbols are kept: the provider occasionally omits codes it still quotes.
func (r *PostgresCurrencyRepository) UpsertSymbols(ctx context.Context, symbols map[string]string) (n int, err error) {
	if len(symbols) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO currencies (code, name, updated_at)
              VALUES ($1, $2, NOW())
              ON CONFLICT (code) DO UPDATE
              SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // closed with the transaction

	for _, code := range sortedCodes(symbols) {
		if _, err = stmt.ExecContext(ctx, strings.ToUpper(code), symbols[code]); err != nil {
			return 0, fmt.Errorf("upsert currency %s: %w", code, err)
		}
		n++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return n, nil
}

// ListCurrencies returns the stored catalogue ordered by code.
func (r *PostgresCurrencyRepository) ListCurrencies(ctx context.Context) ([]Currency, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name, updated_at FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query currencies: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var out []Currency
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.Code, &c.Name, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currencies: %w", err)
	}
	return out, nil
}

// GetSymbols returns the stored catalogue as code -> name, or ErrEmptyCatalogue.
func (r *PostgresCurrencyRepository) GetSymbols(ctx context.Context) (map[string]string, error) {
	currencies, err := r.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	if len(currencies) == 0 {
		return nil, ErrEmptyCatalogue
	}
	symbols := make(map[string]string, len(currencies))
	for _, c := range currencies {
		symbols[c.Code] = c.Name
	}
	return symbols, nil
}

func sortedCodes(symbols map[string]string) []string {
	codes := make([]string, 0, len(symbols))
	for code := range symbols {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
