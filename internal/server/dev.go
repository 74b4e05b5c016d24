package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
)

// The dev endpoints seed the in-memory ledger. They are only routed in dev
// mode.

func (h *Handlers) DevCreateToken(c echo.Context) error {
	var req CreateTokenRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	addr, ok := parseAddress(req.Address)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", nil)
	}
	err := h.Engine.Ledger().CreateToken(c.Request().Context(), addr, ledger.Token{Symbol: req.Symbol, Decimals: req.Decimals})
	if err != nil {
		return h.fail(c, "createToken", err)
	}
	return c.JSON(http.StatusCreated, AddressResponse{Address: addr.Hex()})
}

func (h *Handlers) DevMint(c echo.Context) error {
	var req MintRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	asset, ok := parseAsset(req.Asset)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid asset", nil)
	}
	to, ok := parseAddress(req.To)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid recipient", nil)
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid amount", nil)
	}

	err := h.Engine.Ledger().Execute(c.Request().Context(), func(tx *ledger.Tx) error {
		return tx.Mint(asset, to, amount)
	})
	if err != nil {
		return h.fail(c, "mint", err)
	}
	bal, err := h.Engine.Ledger().BalanceOf(asset, to)
	if err != nil {
		return h.fail(c, "mint", err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{Asset: asset.Hex(), Holder: to.Hex(), Balance: bal.String()})
}

// DevApprove sets an allowance as if owner had signed it. It stands in for
// the approval a wallet would send before swapping a token.
func (h *Handlers) DevApprove(c echo.Context) error {
	var req ApproveRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	token, ok1 := parseAddress(req.Token)
	owner, ok2 := parseAddress(req.Owner)
	spender, ok3 := parseAddress(req.Spender)
	amount, ok4 := parseAmount(req.Amount)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return h.err(c, http.StatusBadRequest, "invalid approve request", nil)
	}

	err := h.Engine.Ledger().Execute(c.Request().Context(), func(tx *ledger.Tx) error {
		return tx.Approve(token, owner, spender, amount)
	})
	if err != nil {
		return h.fail(c, "approve", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) DevAddLiquidity(c echo.Context) error {
	var req LiquidityRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	addr, ok := parseAddress(req.Router)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid router", nil)
	}
	dex, ok := h.Routers[addr]
	if !ok {
		return h.err(c, http.StatusNotFound, "router is not deployed", nil)
	}
	tokenA, ok1 := parseAddress(req.TokenA)
	tokenB, ok2 := parseAddress(req.TokenB)
	amountA, ok3 := parseAmount(req.AmountA)
	amountB, ok4 := parseAmount(req.AmountB)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return h.err(c, http.StatusBadRequest, "invalid liquidity request", nil)
	}

	err := h.Engine.Ledger().Execute(c.Request().Context(), func(tx *ledger.Tx) error {
		return dex.AddLiquidity(tx, tokenA, tokenB, amountA, amountB)
	})
	if err != nil {
		return h.fail(c, "addLiquidity", err)
	}
	return c.NoContent(http.StatusNoContent)
}
