package db

import (
	"context"
	"fmt"
	"time"

	"olo_mining/internal/config"
	"olo_mining/internal/kv"
	"olo_mining/internal/logger"
	"olo_mining/internal/migrations"

	redis "github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces every blob written by the redis backend.
const RedisKeyPrefix = "olo:"

// OpenStore builds the blob store selected by STORE_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return kv.NewMemory(), nil

	case config.BackendSQLite:
		return kv.OpenSQLite(cfg.SQLitePath)

	case config.BackendPostgres:
		pool := Connect(cfg.DatabaseURL)
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return kv.NewPostgres(pool), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("redis store connected", "addr", cfg.RedisAddr)
		return kv.NewRedis(client, RedisKeyPrefix), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
