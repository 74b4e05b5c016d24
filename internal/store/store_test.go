package store

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
	"github.com/aman-zulfiqar/dex-proxy/internal/proxy"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clear test DB
	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(_ *testing.T, client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestNewConfigStore_NilClient(t *testing.T) {
	_, err := NewConfigStore(nil)
	assert.Error(t, err)
}

func TestConfigStore_LoadMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	s, err := NewConfigStore(client)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfigStore_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	s, err := NewConfigStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	owner := common.HexToAddress("0x01")
	cfg := proxy.DefaultConfig()
	cfg.Owner = owner
	cfg.Logger = logger
	cfg.Dexes = []common.Address{common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")}
	e, err := proxy.New(ledger.New(ledger.Config{Logger: logger}), cfg)
	require.NoError(t, err)

	require.NoError(t, e.SetAvailableFeeValues(ctx, owner, []uint64{10, 500}))
	require.NoError(t, e.SetProviderBaseFee(ctx, owner, 300))
	require.NoError(t, s.Save(ctx, e.State()))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, e.State(), got)

	// a later save replaces the sets rather than merging them
	require.NoError(t, e.RemoveFeeValue(ctx, owner, 500))
	require.NoError(t, s.Save(ctx, e.State()))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 75}, got.FeeValues)

	require.NoError(t, s.Delete(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
