package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aman-zulfiqar/dex-proxy/internal/constants"
)

type Config struct {
	// HTTP API settings
	ServerAddr string
	APIKey     string
	DevMode    bool

	// Swap endpoint rate limiting
	SwapRateLimit float64
	SwapBurst     int

	// Accepted age of a signed swap or admin request
	SignatureWindow time.Duration

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Engine deployment
	Chain               string
	ProxyAddress        string
	Owner               string
	ProviderFeeTarget   string
	PromoterFee         uint64
	ProviderBaseFee     uint64
	ProviderDiscountFee uint64
	AvailableFeeValues  []uint64
	Dexes               []string
	WrappedNative       string

	RequestTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		// HTTP
		ServerAddr: getEnv("SERVER_ADDR", ":8090"),
		APIKey:     getEnv("API_KEY", ""),
		DevMode:    getBoolEnv("DEV_MODE", false),

		SwapRateLimit: getFloatEnv("SWAP_RATE_LIMIT", 5),
		SwapBurst:     getIntEnv("SWAP_BURST", 10),

		SignatureWindow: getDurationEnv("SIGNATURE_WINDOW", 2*time.Minute),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "dexproxy"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Engine
		Chain:               getEnv("CHAIN", "bsc"),
		ProxyAddress:        getEnv("PROXY_ADDRESS", "0x000000000000000000000000000000000000dE40"),
		Owner:               getEnv("OWNER", constants.ProdOwner),
		ProviderFeeTarget:   getEnv("PROVIDER_FEE_TARGET", constants.ProdProviderFeeTarget),
		PromoterFee:         getUintEnv("PROMOTER_FEE", constants.ProdPromoterFee),
		ProviderBaseFee:     getUintEnv("PROVIDER_BASE_FEE", constants.ProdProviderBaseFee),
		ProviderDiscountFee: getUintEnv("PROVIDER_DISCOUNT_FEE", constants.ProdProviderDiscountFee),
		AvailableFeeValues:  getUintListEnv("AVAILABLE_FEE_VALUES", constants.ProdAvailableFeeValues),
		WrappedNative:       getEnv("WRAPPED_NATIVE", "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),

		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
	}
	cfg.Dexes = getListEnv("DEXES", constants.Routers[cfg.Chain])
	return cfg
}

// Validate checks addresses and the fee schedule before anything is built
// from the configuration.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ServerAddr) == "" {
		errs = append(errs, errors.New("SERVER_ADDR is required"))
	}
	for name, addr := range map[string]string{
		"PROXY_ADDRESS":       c.ProxyAddress,
		"OWNER":               c.Owner,
		"PROVIDER_FEE_TARGET": c.ProviderFeeTarget,
		"WRAPPED_NATIVE":      c.WrappedNative,
	} {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("%s: %q is not a hex address", name, addr))
		}
	}
	for _, d := range c.Dexes {
		if !common.IsHexAddress(d) {
			errs = append(errs, fmt.Errorf("DEXES: %q is not a hex address", d))
		}
	}

	for name, v := range map[string]uint64{
		"PROMOTER_FEE":          c.PromoterFee,
		"PROVIDER_BASE_FEE":     c.ProviderBaseFee,
		"PROVIDER_DISCOUNT_FEE": c.ProviderDiscountFee,
	} {
		if v > constants.FeeDivisor {
			errs = append(errs, fmt.Errorf("%s: %d exceeds fee divisor %d", name, v, constants.FeeDivisor))
		}
	}
	if c.ProviderBaseFee < c.ProviderDiscountFee+c.PromoterFee {
		errs = append(errs, errors.New("PROVIDER_BASE_FEE must be >= PROVIDER_DISCOUNT_FEE + PROMOTER_FEE"))
	}
	for _, v := range c.AvailableFeeValues {
		if v > constants.FeeDivisor {
			errs = append(errs, fmt.Errorf("AVAILABLE_FEE_VALUES: %d exceeds fee divisor", v))
		}
	}

	if c.SwapRateLimit <= 0 {
		errs = append(errs, errors.New("SWAP_RATE_LIMIT must be positive"))
	}
	if c.SwapBurst < 1 {
		errs = append(errs, errors.New("SWAP_BURST must be at least 1"))
	}
	if c.SignatureWindow <= 0 {
		errs = append(errs, errors.New("SIGNATURE_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

// DexAddresses returns the configured routers as addresses.
func (c *Config) DexAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.Dexes))
	for _, d := range c.Dexes {
		out = append(out, common.HexToAddress(d))
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getUintEnv(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getListEnv(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getUintListEnv falls back to defaultVal if any element fails to parse.
func getUintListEnv(key string, defaultVal []uint64) []uint64 {
	parts := getListEnv(key, nil)
	if len(parts) == 0 {
		return append([]uint64(nil), defaultVal...)
	}
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return append([]uint64(nil), defaultVal...)
		}
		out = append(out, v)
	}
	return out
}
