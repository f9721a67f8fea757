package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clientmailer/clientmailer/internal/config"
)

// Redis wraps the Redis client
type Redis struct {
	*redis.Client
}

// NewRedis creates a new Redis connection
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Redis{Client: client}, nil
}

// HealthCheck verifies the Redis connection is healthy
func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.Ping(ctx).Err()
}

// IncrWindow increments a fixed-window counter and returns the new count together with
// the time left in the window. The expiry is set when the window opens.
func (r *Redis) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := r.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate window %s: %w", key, err)
	}
	return incr.Val(), ttl.Val(), nil
}
