package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/models"
)

// ClickHouseConfig holds connection settings for the receipt history store
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig, logger *logrus.Logger) (*ClickHouseStore, error) {
	if logger == nil {
		logger = logrus.New()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")
	return &ClickHouseStore{conn: conn, logger: logger}, nil
}

const createReceiptsTable = `
	CREATE TABLE IF NOT EXISTS swap_receipts (
		id                String,
		timestamp         DateTime64(3),
		caller            String,
		router            String,
		from_token        String,
		to_token          String,
		amount_in         UInt256,
		output            UInt256,
		integrator_fee    UInt64,
		integrator_target String,
		promoter          String,
		provider_target   String,
		provider_share    UInt256,
		promoter_share    UInt256,
		integrator_share  UInt256,
		caller_share      UInt256
	) ENGINE = MergeTree()
	ORDER BY (timestamp, id)
`

func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createReceiptsTable); err != nil {
		return fmt.Errorf("create swap_receipts: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) InsertReceipt(ctx context.Context, r *models.SwapReceipt) error {
	query := `
		INSERT INTO swap_receipts (
			id, timestamp, caller, router, from_token, to_token,
			amount_in, output, integrator_fee, integrator_target, promoter,
			provider_target, provider_share, promoter_share, integrator_share, caller_share
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		r.ID,
		r.Timestamp,
		r.Caller,
		r.Router,
		r.FromToken,
		r.ToToken,
		r.AmountIn,
		r.Output,
		r.IntegratorFee,
		r.IntegratorTarget,
		r.Promoter,
		r.ProviderTarget,
		r.ProviderShare,
		r.PromoterShare,
		r.IntegratorShare,
		r.CallerShare,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) RecordReceipt(ctx context.Context, r *models.SwapReceipt) error {
	return c.InsertReceipt(ctx, r)
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
