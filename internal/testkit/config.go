// Package testkit starts the Postgres and Redis instances the integration tests run against.
package testkit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is read from TEST_* environment variables.
// Setting TEST_PG_DSN or TEST_REDIS_ADDR points the suite at an existing instance instead of a container.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string
	RedisAddr      string
	StartupTimeout time.Duration
	KeepContainers bool
}

// LoadConfig reads test infrastructure settings from environment variables.
func LoadConfig() Config {
	return Config{
		PGImage:        lookup("TEST_PG_IMAGE", "postgres:18.1-alpine", identity),
		RedisImage:     lookup("TEST_REDIS_IMAGE", "redis:8.4.0-alpine", identity),
		PGDSN:          os.Getenv("TEST_PG_DSN"),
		RedisAddr:      os.Getenv("TEST_REDIS_ADDR"),
		StartupTimeout: lookup("TEST_STARTUP_TIMEOUT", 90*time.Second, parseDuration),
		KeepContainers: lookup("KEEP_CONTAINERS", false, strconv.ParseBool),
	}
}

func identity(s string) (string, error) { return s, nil }

// parseDuration accepts Go durations ("2m") and plain seconds ("120").
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("expected duration or seconds")
	}
	return time.Duration(secs) * time.Second, nil
}

func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testkit: invalid value %q for %s (%v), using default %v\n", v, key, err, def)
		return def
	}
	return out
}
