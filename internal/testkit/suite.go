package testkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// Suite owns the test containers and the clients connected to them.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *PostgresModule
	redis *RedisModule
	db    *sql.DB
	rdb   *redis.Client
}

var (
	globalSuite *Suite
	globalOnce  sync.Once
)

// Global returns the singleton Suite instance.
func Global() *Suite {
	globalOnce.Do(func() {
		globalSuite = &Suite{cfg: LoadConfig()}
	})
	return globalSuite
}

// Setup starts the containers (or uses external overrides) and connects to them.
func (s *Suite) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return errors.New("suite already set up; call Shutdown first")
	}

	pg, err := StartPostgres(ctx, &s.cfg)
	if err != nil {
		return fmt.Errorf("setup postgres: %w", err)
	}
	s.pg = pg

	rm, err := StartRedis(ctx, &s.cfg)
	if err != nil {
		s.terminate(ctx)
		return fmt.Errorf("setup redis: %w", err)
	}
	s.redis = rm

	db, err := sql.Open("pgx", pg.DSN())
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err != nil {
		s.terminate(ctx)
		return fmt.Errorf("connect postgres: %w", err)
	}
	s.db = db

	s.rdb = redis.NewClient(&redis.Options{Addr: rm.Addr()})
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.terminate(ctx)
		return fmt.Errorf("connect redis: %w", err)
	}
	return nil
}

// Shutdown closes the clients and terminates the containers unless KEEP_CONTAINERS is set.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.KeepContainers {
		fmt.Println("KEEP_CONTAINERS=true, leaving containers running")
		if s.pg != nil {
			fmt.Println("  Postgres DSN:", s.pg.DSN())
		}
		if s.redis != nil {
			fmt.Println("  Redis Addr:", s.redis.Addr())
		}
	}
	s.terminate(ctx)
}

// terminate must be called with mu held.
func (s *Suite) terminate(ctx context.Context) {
	if s.rdb != nil {
		_ = s.rdb.Close()
		s.rdb = nil
	}
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	if s.cfg.KeepContainers {
		return
	}
	if s.redis != nil {
		if err := s.redis.Terminate(ctx); err != nil {
			fmt.Println("warning: failed to terminate redis container:", err)
		}
		s.redis = nil
	}
	if s.pg != nil {
		if err := s.pg.Terminate(ctx); err != nil {
			fmt.Println("warning: failed to terminate postgres container:", err)
		}
		s.pg = nil
	}
}

// DB returns the Postgres handle.
func (s *Suite) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Redis returns the Redis client.
func (s *Suite) Redis() *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rdb
}

// RedisAddr returns the host:port address for the test Redis instance.
func (s *Suite) RedisAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redis == nil {
		return ""
	}
	return s.redis.Addr()
}

// Reset truncates the given tables and flushes Redis.
func (s *Suite) Reset(t *testing.T, tables ...string) {
	t.Helper()
	ctx := context.Background()
	for _, table := range tables {
		if _, err := s.DB().ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
	if err := s.Redis().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// Run sets up the suite, runs afterSetup (e.g. migrations) against the
// database, executes the tests and shuts down. Intended for use in TestMain.
func (s *Suite) Run(m *testing.M, afterSetup ...func(*sql.DB) error) {
	ctx := context.Background()

	if err := s.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}

	for _, fn := range afterSetup {
		if err := fn(s.DB()); err != nil {
			fmt.Fprintf(os.Stderr, "afterSetup callback failed: %v\n", err)
			s.Shutdown(ctx)
			os.Exit(1)
		}
	}

	code := m.Run()

	s.Shutdown(ctx)
	os.Exit(code)
}

// Run delegates to Global().Run.
func Run(m *testing.M, afterSetup ...func(*sql.DB) error) {
	Global().Run(m, afterSetup...)
}
