package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig, auth AuthConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)                   // Health check endpoint
	v1.GET("/fees", h.Fees)                       // Fee schedule
	v1.GET("/fees/values/:value", h.FeeValue)     // Integrator fee value membership
	v1.GET("/routers", h.ListRouters)             // Whitelisted routers
	v1.GET("/routers/:address", h.Router)         // Router membership
	v1.GET("/owner", h.Owner)                     // Current owner
	v1.GET("/balances/:asset/:holder", h.Balance) // Ledger balance lookup
	v1.GET("/swaps/recent", h.RecentSwaps)        // Recent swap receipts

	// Swap and admin requests act as the address that signed them
	signed := h.Authenticate(auth)

	// Swap endpoint with rate limiting
	swapGroup := v1.Group("/swap")
	swapGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.SwapRateLimit),
		Burst:     cfg.SwapBurst,
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	swapGroup.Use(signed)
	swapGroup.POST("", h.Swap)

	// Owner-gated configuration and treasury endpoints
	admin := v1.Group("/admin", signed)
	admin.PUT("/promoter-fee", h.SetPromoterFee)
	admin.PUT("/provider-base-fee", h.SetProviderBaseFee)
	admin.PUT("/provider-discount-fee", h.SetProviderDiscountFee)
	admin.PUT("/provider-fee-target", h.SetProviderFeeTarget)
	admin.POST("/fee-values", h.AddFeeValues)
	admin.DELETE("/fee-values/:value", h.RemoveFeeValue)
	admin.POST("/dexes", h.AddDexes)
	admin.DELETE("/dexes/:address", h.RemoveDex)
	admin.POST("/withdraw", h.Withdraw)
	admin.PUT("/owner", h.TransferOwnership)

	// Ledger seeding, dev mode only
	if cfg.DevMode {
		dev := v1.Group("/dev")
		dev.POST("/tokens", h.DevCreateToken)
		dev.POST("/mint", h.DevMint)
		dev.POST("/approve", h.DevApprove)
		dev.POST("/liquidity", h.DevAddLiquidity)
	}

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
