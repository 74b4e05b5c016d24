package proxy

import (
	"context"
	"fmt"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/fees"
	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
	"github.com/aman-zulfiqar/dex-proxy/internal/models"
)

// Swap forwards req to its router and splits the output between the
// provider (base rate), the integrator and the caller. value is the native
// amount the caller attaches to the call.
func (e *Engine) Swap(ctx context.Context, caller common.Address, value *big.Int, req SwapRequest) (*SwapResult, error) {
	return e.swap(ctx, caller, value, req, nil)
}

// SwapWithPromoter is Swap with the provider share reallocated: the provider
// takes the discount rate, the promoter its rate and the integrator the
// difference on top of its own fee. The total fee is unchanged.
func (e *Engine) SwapWithPromoter(ctx context.Context, caller common.Address, value *big.Int, req SwapRequest, promoter common.Address) (*SwapResult, error) {
	return e.swap(ctx, caller, value, req, &promoter)
}

func (e *Engine) swap(ctx context.Context, caller common.Address, value *big.Int, req SwapRequest, promoter *common.Address) (*SwapResult, error) {
	release, err := e.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if value == nil {
		value = new(big.Int)
	}
	params := e.fees.Snapshot()
	if err := e.validate(req, value); err != nil {
		return nil, err
	}

	var split fees.Split
	err = e.ledger.Execute(ctx, func(tx *ledger.Tx) error {
		if err := e.captureInput(tx, caller, value, req); err != nil {
			return err
		}
		output, err := e.callRouter(ctx, tx, req)
		if err != nil {
			return err
		}
		split, err = params.Split(sdkmath.NewIntFromBigInt(output), req.IntegratorFee.Fee, promoter != nil)
		if err != nil {
			return err
		}
		return e.disburse(tx, caller, req, params, split, promoter)
	})
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"caller": caller.Hex(),
			"router": req.Router.Hex(),
		}).Warn("swap reverted")
		return nil, err
	}

	receipt := e.receipt(caller, req, params, split, promoter)
	e.logger.WithFields(logrus.Fields{
		"id":          receipt.ID,
		"caller":      receipt.Caller,
		"router":      receipt.Router,
		"output":      split.Output.String(),
		"provider":    split.Provider.String(),
		"promoter":    split.Promoter.String(),
		"integrator":  split.Integrator.String(),
		"caller_gets": split.Caller.String(),
	}).Info("swap executed")

	e.publish(ctx, receipt)
	return &SwapResult{Split: split, Receipt: receipt}, nil
}

func (e *Engine) validate(req SwapRequest, value *big.Int) error {
	if !e.routers.IsSupported(req.Router) {
		return ErrRouterNotSupported
	}
	if !e.fees.IsFeeValueAvailable(req.IntegratorFee.Fee) {
		return ErrFeeValueNotSupported
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if req.FromToken == req.ToToken {
		return ErrSameAsset
	}
	if req.FromToken == ledger.NativeAsset {
		if value.Cmp(req.Amount) != 0 {
			return ErrValueMismatch
		}
	} else if value.Sign() != 0 {
		return ErrUnexpectedValue
	}
	return nil
}

// captureInput moves the input into the engine account. Token failures are
// returned as the token reports them.
func (e *Engine) captureInput(tx *ledger.Tx, caller common.Address, value *big.Int, req SwapRequest) error {
	if req.FromToken == ledger.NativeAsset {
		return tx.Transfer(ledger.NativeAsset, caller, e.address, value)
	}
	if err := tx.TransferFrom(req.FromToken, e.address, caller, e.address, req.Amount); err != nil {
		return err
	}
	return tx.Approve(req.FromToken, e.address, req.Router, req.Amount)
}

// callRouter invokes the router and returns the toToken amount it delivered
// to the engine, measured by balance delta. The router must consume exactly
// the captured input.
func (e *Engine) callRouter(ctx context.Context, tx *ledger.Tx, req SwapRequest) (*big.Int, error) {
	inBefore, err := tx.BalanceOf(req.FromToken, e.address)
	if err != nil {
		return nil, err
	}
	outBefore, err := tx.BalanceOf(req.ToToken, e.address)
	if err != nil {
		return nil, err
	}

	callValue := new(big.Int)
	if req.FromToken == ledger.NativeAsset {
		callValue.Set(req.Amount)
	}
	if err := e.route(ctx, tx, req.Router, callValue, req.Data); err != nil {
		return nil, fmt.Errorf("router call: %w", err)
	}

	inAfter, err := tx.BalanceOf(req.FromToken, e.address)
	if err != nil {
		return nil, err
	}
	outAfter, err := tx.BalanceOf(req.ToToken, e.address)
	if err != nil {
		return nil, err
	}

	if new(big.Int).Sub(inBefore, inAfter).Cmp(req.Amount) != 0 {
		return nil, ErrAmountMismatch
	}
	if req.FromToken != ledger.NativeAsset {
		if err := tx.Approve(req.FromToken, e.address, req.Router, new(big.Int)); err != nil {
			return nil, err
		}
	}

	output := new(big.Int).Sub(outAfter, outBefore)
	if output.Sign() < 0 {
		return nil, ErrNegativeRouterOutput
	}
	return output, nil
}

// route runs the router with the reentrancy flag raised. The flag drops even
// if the router panics.
func (e *Engine) route(ctx context.Context, tx *ledger.Tx, router common.Address, value *big.Int, data []byte) error {
	e.routing.Store(true)
	defer e.routing.Store(false)
	_, err := tx.Call(e.routerContext(ctx), e.address, router, value, data)
	return err
}

func (e *Engine) disburse(tx *ledger.Tx, caller common.Address, req SwapRequest, params fees.Params, split fees.Split, promoter *common.Address) error {
	payouts := []struct {
		to     common.Address
		amount sdkmath.Int
	}{
		{params.ProviderFeeTarget, split.Provider},
		{req.IntegratorFee.FeeTarget, split.Integrator},
	}
	if promoter != nil {
		payouts = append(payouts, struct {
			to     common.Address
			amount sdkmath.Int
		}{*promoter, split.Promoter})
	}
	payouts = append(payouts, struct {
		to     common.Address
		amount sdkmath.Int
	}{caller, split.Caller})

	for _, p := range payouts {
		if p.amount.IsZero() {
			continue
		}
		if err := tx.Transfer(req.ToToken, e.address, p.to, p.amount.BigInt()); err != nil {
			return fmt.Errorf("disburse to %s: %w", p.to.Hex(), err)
		}
	}
	return nil
}

func (e *Engine) receipt(caller common.Address, req SwapRequest, params fees.Params, split fees.Split, promoter *common.Address) *models.SwapReceipt {
	r := &models.SwapReceipt{
		ID:               uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		Caller:           caller.Hex(),
		Router:           req.Router.Hex(),
		FromToken:        req.FromToken.Hex(),
		ToToken:          req.ToToken.Hex(),
		AmountIn:         new(big.Int).Set(req.Amount),
		Output:           split.Output.BigInt(),
		IntegratorFee:    req.IntegratorFee.Fee,
		IntegratorTarget: req.IntegratorFee.FeeTarget.Hex(),
		ProviderTarget:   params.ProviderFeeTarget.Hex(),
		ProviderShare:    split.Provider.BigInt(),
		PromoterShare:    split.Promoter.BigInt(),
		IntegratorShare:  split.Integrator.BigInt(),
		CallerShare:      split.Caller.BigInt(),
	}
	if promoter != nil {
		r.Promoter = promoter.Hex()
	}
	return r
}

// publish hands the receipt to every sink (best-effort)
func (e *Engine) publish(ctx context.Context, receipt *models.SwapReceipt) {
	for _, s := range e.sinks {
		if err := s.RecordReceipt(ctx, receipt); err != nil {
			e.logger.WithError(err).WithField("id", receipt.ID).Warn("failed to record swap receipt")
		}
	}
}
