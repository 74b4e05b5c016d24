package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

// admin runs an owner-gated engine mutation for the request signer and
// persists the resulting configuration when a store is configured.
func (h *Handlers) admin(c echo.Context, op string, mutate func(ctx context.Context, caller common.Address) error) error {
	caller, ok := h.caller(c)
	if !ok {
		return h.err(c, http.StatusUnauthorized, ErrMissingSignature.Error(), nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	h.engineMu.Lock()
	defer h.engineMu.Unlock()

	if err := mutate(ctx, caller); err != nil {
		return h.fail(c, op, err)
	}
	h.persist(ctx, op)
	return c.JSON(http.StatusOK, StateResponse{
		Owner:   h.Engine.Owner().Hex(),
		Fees:    h.fees(),
		Routers: h.routerList(),
	})
}

// persist is best-effort; the in-memory engine stays authoritative.
func (h *Handlers) persist(ctx context.Context, op string) {
	if h.Store == nil {
		return
	}
	if err := h.Store.Save(ctx, h.Engine.State()); err != nil {
		h.Logger.WithError(err).WithField("op", op).Error("failed to persist engine configuration")
	}
}

func (h *Handlers) bindRate(c echo.Context) (uint64, bool) {
	var req RateRequest
	if err := c.Bind(&req); err != nil {
		return 0, false
	}
	return req.Value, true
}

func (h *Handlers) SetPromoterFee(c echo.Context) error {
	v, ok := h.bindRate(c)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return h.admin(c, "setPromoterFee", func(ctx context.Context, caller common.Address) error {
		return h.Engine.SetPromoterFee(ctx, caller, v)
	})
}

func (h *Handlers) SetProviderBaseFee(c echo.Context) error {
	v, ok := h.bindRate(c)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return h.admin(c, "setProviderBaseFee", func(ctx context.Context, caller common.Address) error {
		return h.Engine.SetProviderBaseFee(ctx, caller, v)
	})
}

func (h *Handlers) SetProviderDiscountFee(c echo.Context) error {
	v, ok := h.bindRate(c)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return h.admin(c, "setProviderDiscountFee", func(ctx context.Context, caller common.Address) error {
		return h.Engine.SetProviderDiscountFee(ctx, caller, v)
	})
}

func (h *Handlers) SetProviderFeeTarget(c echo.Context) error {
	var req AddressRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	target, ok := parseAddress(req.Address)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", nil)
	}
	return h.admin(c, "setProviderFeeTarget", func(ctx context.Context, caller common.Address) error {
		return h.Engine.SetProviderFeeTarget(ctx, caller, target)
	})
}

func (h *Handlers) AddFeeValues(c echo.Context) error {
	var req FeeValuesRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return h.admin(c, "setAvailableFeeValues", func(ctx context.Context, caller common.Address) error {
		return h.Engine.SetAvailableFeeValues(ctx, caller, req.Values)
	})
}

func (h *Handlers) RemoveFeeValue(c echo.Context) error {
	v, err := strconv.ParseUint(c.Param("value"), 10, 64)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fee value", map[string]any{"value": "must be uint64"})
	}
	return h.admin(c, "removeFeeValue", func(ctx context.Context, caller common.Address) error {
		return h.Engine.RemoveFeeValue(ctx, caller, v)
	})
}

func (h *Handlers) AddDexes(c echo.Context) error {
	var req DexesRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	dexes := make([]common.Address, 0, len(req.Dexes))
	for _, d := range req.Dexes {
		addr, ok := parseAddress(d)
		if !ok {
			return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"dex": d})
		}
		dexes = append(dexes, addr)
	}
	return h.admin(c, "setDexes", func(ctx context.Context, caller common.Address) error {
		return h.Engine.SetDexes(ctx, caller, dexes)
	})
}

func (h *Handlers) RemoveDex(c echo.Context) error {
	dex, ok := parseAddress(c.Param("address"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", nil)
	}
	return h.admin(c, "removeDex", func(ctx context.Context, caller common.Address) error {
		return h.Engine.RemoveDex(ctx, caller, dex)
	})
}

func (h *Handlers) TransferOwnership(c echo.Context) error {
	var req AddressRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	owner, ok := parseAddress(req.Address)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", nil)
	}
	return h.admin(c, "transferOwnership", func(ctx context.Context, caller common.Address) error {
		return h.Engine.TransferOwnership(ctx, caller, owner)
	})
}

// Withdraw sweeps an engine balance. It does not touch the configuration, so
// nothing is persisted.
func (h *Handlers) Withdraw(c echo.Context) error {
	var req WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	asset, ok := parseAsset(req.Asset)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid asset", nil)
	}
	receiver, ok := parseAddress(req.Receiver)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid receiver", nil)
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid amount", nil)
	}
	caller, ok := h.caller(c)
	if !ok {
		return h.err(c, http.StatusUnauthorized, ErrMissingSignature.Error(), nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	h.engineMu.Lock()
	defer h.engineMu.Unlock()

	if err := h.Engine.Withdraw(ctx, caller, asset, amount, receiver); err != nil {
		return h.fail(c, "withdraw", err)
	}
	bal, err := h.Engine.Ledger().BalanceOf(asset, receiver)
	if err != nil {
		return h.fail(c, "withdraw", err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{Asset: asset.Hex(), Holder: receiver.Hex(), Balance: bal.String()})
}
