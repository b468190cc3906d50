// Package repository stores the currency catalogue in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
	"go.uber.org/zap"

	"currencyconverter/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// NewPostgresDB opens a pool and pings it, retrying with linear backoff while
// the database is still starting up.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			logger.Infow("Connected to Postgres", "host", cfg.Host, "db", cfg.Name)
			return db, nil
		}
		if attempt == connectAttempts {
			break
		}

		logger.Warnw("Postgres not ready, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", connectAttempts, err)
}
