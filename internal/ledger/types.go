package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NativeAsset identifies the ledger's intrinsic value unit wherever an asset
// address is expected. Every other address names a token.
var NativeAsset = common.Address{}

var (
	ErrTransferExceedsBalance   = errors.New("transfer amount exceeds balance")
	ErrTransferExceedsAllowance = errors.New("transfer amount exceeds allowance")
	ErrInsufficientNative       = errors.New("insufficient native balance")
	ErrInvalidAmount            = errors.New("amount must be a non-negative integer")
	ErrUnknownToken             = errors.New("token does not exist")
	ErrTokenExists              = errors.New("token already exists")
	ErrNativeAllowance          = errors.New("native asset has no allowance")
	ErrNoContract               = errors.New("no contract deployed at address")
	ErrContractExists           = errors.New("contract already deployed at address")
)

// Contract is code deployed at a ledger address. It runs inside the caller's
// transaction and can only touch state through env.Tx.
type Contract interface {
	Call(ctx context.Context, env Env, payload []byte) ([]byte, error)
}

// Env is the execution environment of one contract invocation.
type Env struct {
	Tx     *Tx
	Self   common.Address
	Caller common.Address
	Value  *big.Int
}

// Token describes a fungible token registered on the ledger.
type Token struct {
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type tokenState struct {
	info       Token
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

type state struct {
	native map[common.Address]*big.Int
	tokens map[common.Address]*tokenState
}

func newState() *state {
	return &state{
		native: make(map[common.Address]*big.Int),
		tokens: make(map[common.Address]*tokenState),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.native {
		out.native[k] = new(big.Int).Set(v)
	}
	for addr, t := range s.tokens {
		ct := &tokenState{
			info:       t.info,
			balances:   make(map[common.Address]*big.Int, len(t.balances)),
			allowances: make(map[common.Address]map[common.Address]*big.Int, len(t.allowances)),
		}
		for k, v := range t.balances {
			ct.balances[k] = new(big.Int).Set(v)
		}
		for owner, spenders := range t.allowances {
			m := make(map[common.Address]*big.Int, len(spenders))
			for k, v := range spenders {
				m[k] = new(big.Int).Set(v)
			}
			ct.allowances[owner] = m
		}
		out.tokens[addr] = ct
	}
	return out
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func balance(m map[common.Address]*big.Int, holder common.Address) *big.Int {
	if v, ok := m[holder]; ok {
		return v
	}
	return new(big.Int)
}
