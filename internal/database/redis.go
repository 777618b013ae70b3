package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unach-dtic/chatbot-api/internal/config"
	"github.com/unach-dtic/chatbot-api/internal/logging"
)

// RedisClient wraps the redis connection used for the embedding vector cache
// and the OTP rate limiter.
type RedisClient struct {
	Client *redis.Client
	logger *logging.StandardLogger
}

// NewRedisConnection opens and verifies a redis connection.
func NewRedisConnection(cfg config.RedisConfig, logger *logging.StandardLogger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithComponent("redis").Info("connected to Redis")
	return &RedisClient{Client: rdb, logger: logger}, nil
}

// HealthCheck verifies the connection is alive.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// Close releases the connection.
func (r *RedisClient) Close() {
	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			r.logger.WithComponent("redis").WithError(err).Warn("failed to close Redis connection")
		}
	}
}
