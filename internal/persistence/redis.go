package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

const seenKeyPrefix = "helpdesk:mail:seen:"

// Redis wraps the go-redis client and implements the correlation
// engine's processed-message cache: Message-IDs already appended to a
// ticket are remembered for a TTL so a message redelivered by the mail
// source is not appended twice.
type Redis struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, seenTTL time.Duration, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, ttl: seenTTL}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Seen reports whether the Message-ID was already processed.
func (r *Redis) Seen(ctx context.Context, messageID string) (bool, error) {
	n, err := r.Client.Exists(ctx, seenKeyPrefix+messageID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSeen records the Message-ID as processed.
func (r *Redis) MarkSeen(ctx context.Context, messageID string) error {
	return r.Client.Set(ctx, seenKeyPrefix+messageID, 1, r.ttl).Err()
}
