// Package redis opens the connection behind the Redis history store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"copro/internal/platform/config"
)

var ErrNotConfigured = errors.New("redis history backend requires REDIS_URL")

// Open connects to the Redis instance that holds the resident history
// trail. History is append-only and has no other copy, so a server that
// neither snapshots nor keeps an append-only file is reported as a warning.
func Open(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPool(opts, cfg)

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	durable, err := Durable(ctx, client)
	switch {
	case err != nil:
		// Managed offerings often disable CONFIG.
		logger.WarnContext(ctx, "could not read redis persistence settings", "error", err)
	case !durable:
		logger.WarnContext(ctx, "redis persistence is off, resident history will not survive a restart",
			"addr", opts.Addr,
		)
	}
	return client, nil
}

// applyPool overrides the URL's pool settings with the non-zero ones in cfg.
func applyPool(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Durable reports whether the server persists writes, through AOF or RDB
// snapshot rules.
func Durable(ctx context.Context, client *redis.Client) (bool, error) {
	aof, err := client.ConfigGet(ctx, "appendonly").Result()
	if err != nil {
		return false, fmt.Errorf("config get appendonly: %w", err)
	}
	if strings.EqualFold(aof["appendonly"], "yes") {
		return true, nil
	}
	save, err := client.ConfigGet(ctx, "save").Result()
	if err != nil {
		return false, fmt.Errorf("config get save: %w", err)
	}
	return strings.TrimSpace(save["save"]) != "", nil
}
