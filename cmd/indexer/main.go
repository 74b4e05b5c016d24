package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/cache"
	"github.com/aman-zulfiqar/dex-proxy/internal/config"
	"github.com/aman-zulfiqar/dex-proxy/internal/constants"
	"github.com/aman-zulfiqar/dex-proxy/internal/models"
)

// Indexer copies every published swap receipt into ClickHouse.
type Indexer struct {
	redis      *cache.RedisCache
	clickhouse *cache.ClickHouseStore
	pubsub     *cache.PubSubManager
	logger     *logrus.Logger
}

func NewIndexer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Indexer, error) {
	redis := cache.NewRedisCache(cfg.RedisAddr, logger)
	if err := redis.Ping(ctx); err != nil {
		_ = redis.Close()
		return nil, err
	}

	clickhouse, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
	}, logger)
	if err != nil {
		_ = redis.Close()
		return nil, err
	}
	if err := clickhouse.EnsureSchema(ctx); err != nil {
		_ = clickhouse.Close()
		_ = redis.Close()
		return nil, err
	}

	return &Indexer{
		redis:      redis,
		clickhouse: clickhouse,
		pubsub:     cache.NewPubSubManager(redis.Client(), logger),
		logger:     logger,
	}, nil
}

// Run blocks until ctx is cancelled or the subscription drops.
func (idx *Indexer) Run(ctx context.Context) error {
	return idx.pubsub.Subscribe(ctx, constants.PubSubChannelReceipts, func(r *models.SwapReceipt) {
		insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := idx.clickhouse.InsertReceipt(insertCtx, r); err != nil {
			idx.logger.WithError(err).WithField("receipt_id", r.ID).Error("failed to store receipt")
			return
		}
		idx.logger.WithFields(logrus.Fields{
			"receipt_id": r.ID,
			"router":     r.Router,
			"output":     r.Output,
		}).Debug("stored receipt")
	})
}

func (idx *Indexer) Close() {
	if err := idx.clickhouse.Close(); err != nil {
		idx.logger.WithError(err).Warn("clickhouse close")
	}
	if err := idx.redis.Close(); err != nil {
		idx.logger.WithError(err).Warn("redis close")
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	_, filename, _, _ := runtime.Caller(0)
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), "../..", ".env"))

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, err := NewIndexer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to start indexer")
	}
	defer idx.Close()

	logger.Info("indexer running, press Ctrl+C to stop")
	if err := idx.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("subscription ended")
		return
	}
	logger.Info("indexer stopped")
}
