package testkit

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisModule is a Redis reachable at Addr. The same instance backs both the
// catalogue cache and the asynq queue in tests.
type RedisModule struct {
	container testcontainers.Container
	addr      string
}

// Addr returns host:port, the form go-redis and asynq expect.
func (r *RedisModule) Addr() string { return r.addr }

// Terminate stops the container, if one was started.
func (r *RedisModule) Terminate(ctx context.Context) error {
	if r.container == nil {
		return nil
	}
	return r.container.Terminate(ctx)
}

// StartRedis starts a Redis container unless cfg.RedisAddr names an existing instance.
func StartRedis(ctx context.Context, cfg *Config) (*RedisModule, error) {
	if cfg.RedisAddr != "" {
		return &RedisModule{addr: cfg.RedisAddr}, nil
	}

	ctr, err := tcredis.Run(ctx, cfg.RedisImage)
	if err != nil {
		return nil, fmt.Errorf("start redis container: %w", err)
	}

	// Endpoint with an empty scheme yields host:port rather than a redis:// URL.
	addr, err := ctr.Endpoint(ctx, "")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("get redis endpoint: %w", err)
	}

	return &RedisModule{container: ctr, addr: addr}, nil
}
