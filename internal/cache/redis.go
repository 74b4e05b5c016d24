package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/constants"
	"github.com/aman-zulfiqar/dex-proxy/internal/models"
)

// RedisCache keeps a bounded list of recent swap receipts and fans them out
// over Pub/Sub.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisCache(addr string, logger *logrus.Logger) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	}), logger)
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) AddRecentReceipt(ctx context.Context, receipt *models.SwapReceipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentReceipts, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentReceipts, 0, constants.MaxRecentReceipts-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent receipt: %w", err)
	}
	return nil
}

// GetRecentReceipts returns up to limit receipts, newest first. Entries that
// no longer decode are skipped.
func (r *RedisCache) GetRecentReceipts(ctx context.Context, limit int64) ([]*models.SwapReceipt, error) {
	if limit <= 0 || limit > constants.MaxRecentReceipts {
		limit = constants.MaxRecentReceipts
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentReceipts, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent receipts: %w", err)
	}

	out := make([]*models.SwapReceipt, 0, len(vals))
	for _, v := range vals {
		var receipt models.SwapReceipt
		if err := json.Unmarshal([]byte(v), &receipt); err != nil {
			r.logger.WithError(err).Warn("skipping malformed cached receipt")
			continue
		}
		out = append(out, &receipt)
	}
	return out, nil
}

func (r *RedisCache) PublishReceipt(ctx context.Context, receipt *models.SwapReceipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if err := r.client.Publish(ctx, constants.PubSubChannelReceipts, data).Err(); err != nil {
		return fmt.Errorf("publish receipt: %w", err)
	}
	return nil
}

// RecordReceipt caches the receipt, then publishes it. A failed publish
// leaves the cached entry in place.
func (r *RedisCache) RecordReceipt(ctx context.Context, receipt *models.SwapReceipt) error {
	if err := r.AddRecentReceipt(ctx, receipt); err != nil {
		return err
	}
	return r.PublishReceipt(ctx, receipt)
}

// Claim marks key as used for ttl. It reports false when the key was already
// claimed.
func (r *RedisCache) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, constants.RedisKeySignatures+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
