package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Config holds configuration for the ledger
type Config struct {
	Now    func() time.Time // block time source, defaults to time.Now
	Logger *logrus.Logger
}

// Ledger is an in-memory execution substrate. Transactions run one at a time
// and either commit every effect or none.
type Ledger struct {
	mu     sync.Mutex
	st     *state
	now    func() time.Time
	logger *logrus.Logger

	cmu       sync.RWMutex
	contracts map[common.Address]Contract
}

func New(cfg Config) *Ledger {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Ledger{
		st:        newState(),
		now:       cfg.Now,
		logger:    cfg.Logger,
		contracts: make(map[common.Address]Contract),
	}
}

// Execute runs fn as one atomic transaction. If fn returns an error or panics
// every state change it made is discarded. Errors are returned unchanged and
// panics are re-raised after the rollback.
func (l *Ledger) Execute(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.st.clone()
	tx := &Tx{l: l, st: l.st, now: l.now()}
	defer func() {
		if r := recover(); r != nil {
			tx.closed = true
			l.st = snapshot
			l.logger.WithField("panic", r).Error("ledger transaction panicked, reverted")
			panic(r)
		}
	}()
	err := fn(tx)
	tx.closed = true
	if err != nil {
		l.st = snapshot
		l.logger.WithError(err).Debug("ledger transaction reverted")
		return err
	}
	return nil
}

// Deploy installs c at addr. Contracts live outside transactional state.
func (l *Ledger) Deploy(addr common.Address, c Contract) error {
	l.cmu.Lock()
	defer l.cmu.Unlock()
	if _, ok := l.contracts[addr]; ok {
		return fmt.Errorf("%s: %w", addr.Hex(), ErrContractExists)
	}
	l.contracts[addr] = c
	return nil
}

func (l *Ledger) contract(addr common.Address) (Contract, bool) {
	l.cmu.RLock()
	defer l.cmu.RUnlock()
	c, ok := l.contracts[addr]
	return c, ok
}

// CreateToken registers a token at addr with no supply.
func (l *Ledger) CreateToken(ctx context.Context, addr common.Address, t Token) error {
	return l.Execute(ctx, func(tx *Tx) error {
		return tx.CreateToken(addr, t)
	})
}

// BalanceOf reads a committed balance outside of any transaction.
func (l *Ledger) BalanceOf(asset, holder common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := &Tx{l: l, st: l.st, now: l.now()}
	return tx.BalanceOf(asset, holder)
}

// TokenInfo returns metadata for a registered token.
func (l *Ledger) TokenInfo(addr common.Address) (Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.st.tokens[addr]
	if !ok {
		return Token{}, ErrUnknownToken
	}
	return t.info, nil
}
