package proxy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/access"
	"github.com/aman-zulfiqar/dex-proxy/internal/constants"
	"github.com/aman-zulfiqar/dex-proxy/internal/fees"
	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
	"github.com/aman-zulfiqar/dex-proxy/internal/storage"
	"github.com/aman-zulfiqar/dex-proxy/internal/whitelist"
)

// Engine is the fee-taking swap proxy. It owns a ledger account, forwards
// swaps to whitelisted routers and splits the measured output between the
// provider, the integrator, an optional promoter and the caller.
type Engine struct {
	// mu serializes every mutating entry point.
	mu sync.Mutex
	// routing is set while a router call is in flight. Any entry during it
	// is a reentrant call.
	routing atomic.Bool

	address common.Address
	ledger  *ledger.Ledger
	owner   *access.Ownable
	fees    *fees.Parameters
	routers *whitelist.Routers
	sinks   []storage.ReceiptSink
	logger  *logrus.Logger
}

// New creates an engine bound to the given ledger
func New(l *ledger.Ledger, cfg Config) (*Engine, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.FeeDivisor == 0 {
		cfg.FeeDivisor = constants.FeeDivisor
	}

	params, err := fees.New(
		cfg.FeeDivisor,
		cfg.PromoterFee,
		cfg.ProviderBaseFee,
		cfg.ProviderDiscountFee,
		cfg.ProviderFeeTarget,
		cfg.AvailableFeeValues,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid fee parameters: %w", err)
	}

	return &Engine{
		address: cfg.Address,
		ledger:  l,
		owner:   access.NewOwnable(cfg.Owner),
		fees:    params,
		routers: whitelist.NewRouters(cfg.Dexes...),
		sinks:   cfg.Sinks,
		logger:  cfg.Logger,
	}, nil
}

// WithSinks appends receipt sinks.
func (e *Engine) WithSinks(sinks ...storage.ReceiptSink) *Engine {
	for _, s := range sinks {
		if s != nil {
			e.sinks = append(e.sinks, s)
		}
	}
	return e
}

type callFrameKey struct{}

// enter takes the engine lock. It fails fast with ErrReentrantCall while a
// router call of this engine is in flight, whatever ctx the caller carries.
// Callers that share an engine across goroutines serialize their own calls
// so that only true re-entry observes the flag.
func (e *Engine) enter(ctx context.Context) (func(), error) {
	if frame, ok := ctx.Value(callFrameKey{}).(*Engine); ok && frame == e {
		return nil, ErrReentrantCall
	}
	if e.routing.Load() {
		return nil, ErrReentrantCall
	}
	e.mu.Lock()
	return e.mu.Unlock, nil
}

func (e *Engine) routerContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, callFrameKey{}, e)
}

// admin runs mutate for the owner only.
func (e *Engine) admin(ctx context.Context, caller common.Address, op string, mutate func() error) error {
	release, err := e.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := e.owner.Check(caller); err != nil {
		e.logger.WithFields(logrus.Fields{"op": op, "caller": caller.Hex()}).Warn("rejected non-owner call")
		return err
	}
	if err := mutate(); err != nil {
		return err
	}
	e.logger.WithField("op", op).Info("configuration updated")
	return nil
}

func (e *Engine) Address() common.Address { return e.address }
func (e *Engine) Ledger() *ledger.Ledger  { return e.ledger }
func (e *Engine) Owner() common.Address   { return e.owner.Owner() }
func (e *Engine) Params() fees.Params     { return e.fees.Snapshot() }

func (e *Engine) FeeDivisor() uint64                { return e.fees.Snapshot().FeeDivisor }
func (e *Engine) PromoterFee() uint64               { return e.fees.Snapshot().PromoterFee }
func (e *Engine) ProviderBaseFee() uint64           { return e.fees.Snapshot().ProviderBaseFee }
func (e *Engine) ProviderDiscountFee() uint64       { return e.fees.Snapshot().ProviderDiscountFee }
func (e *Engine) ProviderFeeTarget() common.Address { return e.fees.Snapshot().ProviderFeeTarget }
func (e *Engine) AvailableFeeValues(v uint64) bool  { return e.fees.IsFeeValueAvailable(v) }
func (e *Engine) Dexes(addr common.Address) bool    { return e.routers.IsSupported(addr) }
func (e *Engine) FeeValues() []uint64               { return e.fees.FeeValues() }
func (e *Engine) RouterList() []common.Address      { return e.routers.List() }

// State exports the configuration for persistence.
func (e *Engine) State() State {
	return State{
		Owner:     e.owner.Owner(),
		Params:    e.fees.Snapshot(),
		FeeValues: e.fees.FeeValues(),
		Routers:   e.routers.List(),
	}
}

func (e *Engine) SetPromoterFee(ctx context.Context, caller common.Address, v uint64) error {
	return e.admin(ctx, caller, "setPromoterFee", func() error {
		return e.fees.SetPromoterFee(v)
	})
}

func (e *Engine) SetProviderBaseFee(ctx context.Context, caller common.Address, v uint64) error {
	return e.admin(ctx, caller, "setProviderBaseFee", func() error {
		return e.fees.SetProviderBaseFee(v)
	})
}

func (e *Engine) SetProviderDiscountFee(ctx context.Context, caller common.Address, v uint64) error {
	return e.admin(ctx, caller, "setProviderDiscountFee", func() error {
		return e.fees.SetProviderDiscountFee(v)
	})
}

func (e *Engine) SetProviderFeeTarget(ctx context.Context, caller, target common.Address) error {
	return e.admin(ctx, caller, "setProviderFeeTarget", func() error {
		return e.fees.SetProviderFeeTarget(target)
	})
}

func (e *Engine) SetAvailableFeeValues(ctx context.Context, caller common.Address, values []uint64) error {
	return e.admin(ctx, caller, "setAvailableFeeValues", func() error {
		return e.fees.SetAvailableFeeValues(values)
	})
}

func (e *Engine) RemoveFeeValue(ctx context.Context, caller common.Address, v uint64) error {
	return e.admin(ctx, caller, "removeFeeValue", func() error {
		e.fees.RemoveFeeValue(v)
		return nil
	})
}

func (e *Engine) SetDexes(ctx context.Context, caller common.Address, dexes []common.Address) error {
	return e.admin(ctx, caller, "setDexes", func() error {
		e.routers.SetDexes(dexes)
		return nil
	})
}

func (e *Engine) RemoveDex(ctx context.Context, caller, dex common.Address) error {
	return e.admin(ctx, caller, "removeDex", func() error {
		e.routers.RemoveDex(dex)
		return nil
	})
}

func (e *Engine) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	release, err := e.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := e.owner.TransferOwnership(caller, newOwner); err != nil {
		return err
	}
	e.logger.WithField("owner", newOwner.Hex()).Info("ownership transferred")
	return nil
}
