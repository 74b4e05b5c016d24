package server

import (
	"context"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
	"github.com/aman-zulfiqar/dex-proxy/internal/proxy"
	"github.com/aman-zulfiqar/dex-proxy/internal/router"
	"github.com/aman-zulfiqar/dex-proxy/internal/storage"
	"github.com/aman-zulfiqar/dex-proxy/internal/store"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine  *proxy.Engine                        // Swap proxy engine
	Cache   storage.ReceiptCache                 // Redis-backed receipt cache (optional)
	Store   *store.ConfigStore                   // Redis-backed engine configuration (optional)
	Routers map[common.Address]*router.UniswapV2 // Routers deployed on the ledger, for dev seeding
	DevMode bool                                 // Enable detailed error responses and seeding endpoints
	Logger  *logrus.Logger                       // Structured logger

	// engineMu runs one engine call at a time, so a concurrent request never
	// looks like re-entry to the engine.
	engineMu sync.Mutex
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// fail reports an engine error. Client errors carry the engine's reason.
func (h *Handlers) fail(c echo.Context, op string, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.Logger.WithError(err).WithField("op", op).Error("request failed")
		return h.err(c, code, op+" failed", map[string]any{"err": err.Error()})
	}
	return h.err(c, code, err.Error(), nil)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func parseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// parseAsset accepts "native" for the native asset
func parseAsset(s string) (common.Address, bool) {
	if strings.EqualFold(strings.TrimSpace(s), "native") {
		return ledger.NativeAsset, true
	}
	return parseAddress(s)
}

// parseAmount parses a non-negative decimal or 0x-hex integer. Empty is zero.
func parseAmount(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), true
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

// caller is the signer resolved by Authenticate
func (h *Handlers) caller(c echo.Context) (common.Address, bool) {
	addr, ok := c.Get(callerContextKey).(common.Address)
	return addr, ok
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

func (h *Handlers) fees() FeesResponse {
	p := h.Engine.Params()
	return FeesResponse{
		FeeDivisor:          p.FeeDivisor,
		PromoterFee:         p.PromoterFee,
		ProviderBaseFee:     p.ProviderBaseFee,
		ProviderDiscountFee: p.ProviderDiscountFee,
		ProviderFeeTarget:   p.ProviderFeeTarget.Hex(),
		AvailableFeeValues:  h.Engine.FeeValues(),
	}
}

func (h *Handlers) routerList() []string {
	list := h.Engine.RouterList()
	items := make([]string, len(list))
	for i, r := range list {
		items[i] = r.Hex()
	}
	return items
}

func (h *Handlers) Fees(c echo.Context) error {
	return c.JSON(http.StatusOK, h.fees())
}

func (h *Handlers) FeeValue(c echo.Context) error {
	v, err := strconv.ParseUint(c.Param("value"), 10, 64)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fee value", map[string]any{"value": "must be uint64"})
	}
	return c.JSON(http.StatusOK, MembershipResponse{
		Value:     strconv.FormatUint(v, 10),
		Supported: h.Engine.AvailableFeeValues(v),
	})
}

func (h *Handlers) ListRouters(c echo.Context) error {
	return c.JSON(http.StatusOK, RoutersResponse{Items: h.routerList()})
}

func (h *Handlers) Router(c echo.Context) error {
	addr, ok := parseAddress(c.Param("address"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", nil)
	}
	return c.JSON(http.StatusOK, MembershipResponse{Value: addr.Hex(), Supported: h.Engine.Dexes(addr)})
}

func (h *Handlers) Owner(c echo.Context) error {
	return c.JSON(http.StatusOK, AddressResponse{Address: h.Engine.Owner().Hex()})
}

func (h *Handlers) Balance(c echo.Context) error {
	asset, ok := parseAsset(c.Param("asset"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid asset", nil)
	}
	holder, ok := parseAddress(c.Param("holder"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid holder", nil)
	}
	bal, err := h.Engine.Ledger().BalanceOf(asset, holder)
	if err != nil {
		return h.fail(c, "balance", err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{Asset: asset.Hex(), Holder: holder.Hex(), Balance: bal.String()})
}

// RecentSwaps returns the most recent swap receipts with optional limit parameter
// Accepts limit query parameter (default: 50, range: 1-100)
func (h *Handlers) RecentSwaps(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusBadRequest, "receipt cache is not configured", nil)
	}

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 100 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentReceipts(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Swap executes a swap through the engine for the request signer. A promoter
// in the body selects the promoter split.
func (h *Handlers) Swap(c echo.Context) error {
	caller, ok := h.caller(c)
	if !ok {
		return h.err(c, http.StatusUnauthorized, ErrMissingSignature.Error(), nil)
	}
	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	invalid := map[string]any{}
	from, ok := parseAsset(req.FromToken)
	if !ok {
		invalid["from_token"] = "must be an address or native"
	}
	to, ok := parseAsset(req.ToToken)
	if !ok {
		invalid["to_token"] = "must be an address or native"
	}
	rtr, ok := parseAddress(req.Router)
	if !ok {
		invalid["router"] = "must be an address"
	}
	feeTarget, ok := parseAddress(req.IntegratorFee.FeeTarget)
	if !ok {
		invalid["integrator_fee.fee_target"] = "must be an address"
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		invalid["amount"] = "must be a non-negative integer"
	}
	value, ok := parseAmount(req.Value)
	if !ok {
		invalid["value"] = "must be a non-negative integer"
	}
	data, err := hexutil.Decode(req.Data)
	if err != nil {
		invalid["data"] = "must be 0x-prefixed hex"
	}
	var promoter *common.Address
	if req.Promoter != "" {
		p, ok := parseAddress(req.Promoter)
		if !ok {
			invalid["promoter"] = "must be an address"
		}
		promoter = &p
	}
	if len(invalid) > 0 {
		return h.err(c, http.StatusBadRequest, "invalid swap request", invalid)
	}

	swap := proxy.SwapRequest{
		FromToken:     from,
		ToToken:       to,
		Amount:        amount,
		Router:        rtr,
		Data:          data,
		IntegratorFee: proxy.IntegratorFee{Fee: req.IntegratorFee.Fee, FeeTarget: feeTarget},
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	h.engineMu.Lock()
	defer h.engineMu.Unlock()

	var res *proxy.SwapResult
	if promoter != nil {
		res, err = h.Engine.SwapWithPromoter(ctx, caller, value, swap, *promoter)
	} else {
		res, err = h.Engine.Swap(ctx, caller, value, swap)
	}
	if err != nil {
		return h.fail(c, "swap", err)
	}
	return c.JSON(http.StatusOK, SwapResponse{Receipt: res.Receipt})
}
