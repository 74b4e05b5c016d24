package storage

import (
	"context"
	"io"
	"time"

	"github.com/aman-zulfiqar/dex-proxy/internal/models"
)

// ReceiptSink receives every committed swap receipt. Sinks are best-effort:
// an error is logged by the caller and never undoes the swap.
type ReceiptSink interface {
	RecordReceipt(ctx context.Context, receipt *models.SwapReceipt) error
}

// ReceiptCache defines the interface for caching recent swap receipts
type ReceiptCache interface {
	ReceiptSink

	// AddRecentReceipt pushes a receipt onto the bounded recent list
	AddRecentReceipt(ctx context.Context, receipt *models.SwapReceipt) error

	// GetRecentReceipts retrieves the most recent receipts, newest first
	GetRecentReceipts(ctx context.Context, limit int64) ([]*models.SwapReceipt, error)

	// PublishReceipt publishes a receipt to the Pub/Sub channel
	PublishReceipt(ctx context.Context, receipt *models.SwapReceipt) error

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// ReceiptStore defines the interface for persistent receipt history
type ReceiptStore interface {
	ReceiptSink

	// InsertReceipt inserts a receipt into the store
	InsertReceipt(ctx context.Context, receipt *models.SwapReceipt) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// ReplayGuard records one-time keys such as request signatures
type ReplayGuard interface {
	// Claim reports false when key was already claimed within ttl
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ReceiptHandler is a function that processes receipts from a subscription
type ReceiptHandler func(*models.SwapReceipt)
