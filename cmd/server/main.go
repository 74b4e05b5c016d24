package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/cache"
	"github.com/aman-zulfiqar/dex-proxy/internal/config"
	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
	"github.com/aman-zulfiqar/dex-proxy/internal/proxy"
	"github.com/aman-zulfiqar/dex-proxy/internal/router"
	"github.com/aman-zulfiqar/dex-proxy/internal/server"
	"github.com/aman-zulfiqar/dex-proxy/internal/store"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the proxy API server
// It builds the ledger, deploys the routers, restores the engine configuration
// and serves the HTTP API with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	pcfg := proxy.DefaultConfig()
	pcfg.Address = common.HexToAddress(cfg.ProxyAddress)
	pcfg.Owner = common.HexToAddress(cfg.Owner)
	pcfg.PromoterFee = cfg.PromoterFee
	pcfg.ProviderBaseFee = cfg.ProviderBaseFee
	pcfg.ProviderDiscountFee = cfg.ProviderDiscountFee
	pcfg.ProviderFeeTarget = common.HexToAddress(cfg.ProviderFeeTarget)
	pcfg.AvailableFeeValues = cfg.AvailableFeeValues
	pcfg.Dexes = cfg.DexAddresses()
	pcfg.Logger = logger

	// Redis is optional: without it there is no receipt cache and no
	// persisted configuration
	var (
		receiptCache *cache.RedisCache
		configStore  *store.ConfigStore
	)
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, running without receipt cache and config persistence")
		_ = rclient.Close()
	} else {
		receiptCache = cache.NewRedisCacheFromClient(rclient, logger)
		defer receiptCache.Close()

		s, err := store.NewConfigStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create config store")
		}
		configStore = s
		pcfg, err = restoreState(ctx, configStore, pcfg, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to restore engine configuration")
		}
	}

	// Ledger with one UniswapV2-style router per whitelisted address
	l := ledger.New(ledger.Config{Logger: logger})
	routers := make(map[common.Address]*router.UniswapV2)
	for _, addr := range pcfg.Dexes {
		dex := router.NewUniswapV2(addr, common.HexToAddress(cfg.WrappedNative))
		if err := l.Deploy(addr, dex); err != nil {
			logger.WithError(err).Fatal("failed to deploy router")
		}
		routers[addr] = dex
	}

	engine, err := proxy.New(l, pcfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to create proxy engine")
	}
	if receiptCache != nil {
		engine.WithSinks(receiptCache)
	}
	if configStore != nil {
		if err := configStore.Save(ctx, engine.State()); err != nil {
			logger.WithError(err).Warn("failed to persist engine configuration")
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Engine:  engine,
		Routers: routers,
		DevMode: cfg.DevMode,
		Logger:  logger,
	}
	// Interface fields stay nil rather than typed-nil when Redis is absent
	if receiptCache != nil {
		h.Cache = receiptCache
	}
	h.Store = configStore

	deps := server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:            cfg.ServerAddr,
			DevMode:         cfg.DevMode,
			APIKey:          cfg.APIKey,
			SwapRateLimit:   cfg.SwapRateLimit,
			SwapBurst:       cfg.SwapBurst,
			SignatureWindow: cfg.SignatureWindow,
		},
	}
	// Signed requests are claimed in Redis so replays are caught across instances
	if receiptCache != nil {
		deps.Replay = receiptCache
	}
	srv, err := server.NewServer(deps)
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":    cfg.ServerAddr,
		"chain":   cfg.Chain,
		"proxy":   engine.Address().Hex(),
		"routers": len(routers),
	}).Info("proxy server starting")
	if err := srv.Start(); err != nil {
		// http.ErrServerClosed is expected during graceful shutdown
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("proxy server failed")
		}
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer waitCancel()
	if err := srv.WaitClosed(waitCtx); err != nil {
		fmt.Println(err)
	}
}

// restoreState overlays a persisted configuration onto the deployment
// defaults. A missing state keeps the defaults.
func restoreState(ctx context.Context, s *store.ConfigStore, cfg proxy.Config, logger *logrus.Logger) (proxy.Config, error) {
	st, err := s.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		logger.Info("no persisted engine configuration, using deployment defaults")
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	logger.WithFields(logrus.Fields{
		"owner":      st.Owner.Hex(),
		"fee_values": len(st.FeeValues),
		"routers":    len(st.Routers),
	}).Info("restored engine configuration")
	return cfg.WithState(st), nil
}
