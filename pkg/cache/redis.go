// Package cache owns the redis client backing the portfolio read cache.
// The cache is an optional collaborator: the API runs fine without it, so
// construction fails fast and lets the caller decide to continue degraded.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillmatch-hu/skillmatch-api/pkg/config"
)

// Portfolio reads are latency-sensitive but never critical; a slow redis
// should lose the race, not stall the request.
const (
	dialTimeout = 2 * time.Second
	opTimeout   = 500 * time.Millisecond
	pingTimeout = 3 * time.Second
	clientName  = "skillmatch-api"
)

// NewRedis connects and verifies the server answers before handing the
// client out.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", addr, err)
	}

	return client, nil
}
