package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/aman-zulfiqar/dex-proxy/internal/amm"
	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
)

var (
	ErrExpired                  = errors.New("UniswapV2Router: EXPIRED")
	ErrInvalidPath              = errors.New("UniswapV2Router: INVALID_PATH")
	ErrInsufficientOutputAmount = errors.New("UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT")
	ErrTransferFromFailed       = errors.New("TransferHelper: TRANSFER_FROM_FAILED")
)

// UniswapV2 is a constant-product router contract. Each pair keeps its
// reserves as ledger balances of its own deterministic address, so every
// router effect is covered by ledger rollback. The wrapped native token is
// represented by the native asset itself.
type UniswapV2 struct {
	address       common.Address
	wrappedNative common.Address
}

func NewUniswapV2(address, wrappedNative common.Address) *UniswapV2 {
	return &UniswapV2{address: address, wrappedNative: wrappedNative}
}

func (r *UniswapV2) Address() common.Address {
	return r.address
}

func (r *UniswapV2) WrappedNative() common.Address {
	return r.wrappedNative
}

// PairAddress derives the pool address for a token pair, independent of order.
func PairAddress(a, b common.Address) common.Address {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return common.BytesToAddress(crypto.Keccak256(a.Bytes(), b.Bytes())[12:])
}

// Asset maps a path element to the ledger asset that backs it.
func (r *UniswapV2) Asset(token common.Address) common.Address {
	if token == r.wrappedNative {
		return ledger.NativeAsset
	}
	return token
}

// AddLiquidity mints reserves straight into the pair.
func (r *UniswapV2) AddLiquidity(tx *ledger.Tx, tokenA, tokenB common.Address, amountA, amountB *big.Int) error {
	pair := PairAddress(tokenA, tokenB)
	if err := tx.Mint(r.Asset(tokenA), pair, amountA); err != nil {
		return fmt.Errorf("seed %s: %w", tokenA.Hex(), err)
	}
	if err := tx.Mint(r.Asset(tokenB), pair, amountB); err != nil {
		return fmt.Errorf("seed %s: %w", tokenB.Hex(), err)
	}
	return nil
}

// GetAmountsOut returns the amount at every hop of path for amountIn.
func (r *UniswapV2) GetAmountsOut(tx *ledger.Tx, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*big.Int, len(path))
	amounts[0] = new(big.Int).Set(amountIn)
	for i := 0; i < len(path)-1; i++ {
		pair := PairAddress(path[i], path[i+1])
		reserveIn, err := tx.BalanceOf(r.Asset(path[i]), pair)
		if err != nil {
			return nil, err
		}
		reserveOut, err := tx.BalanceOf(r.Asset(path[i+1]), pair)
		if err != nil {
			return nil, err
		}
		out, err := amm.GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

func (r *UniswapV2) Call(ctx context.Context, env ledger.Env, payload []byte) ([]byte, error) {
	call, err := DecodeSwapCall(payload)
	if err != nil {
		return nil, err
	}
	tx := env.Tx
	if call.Deadline.Cmp(big.NewInt(tx.Now().Unix())) < 0 {
		return nil, ErrExpired
	}
	if len(call.Path) < 2 {
		return nil, ErrInvalidPath
	}

	var amountIn *big.Int
	switch call.Method {
	case MethodSwapExactETHForTokens:
		if call.Path[0] != r.wrappedNative {
			return nil, ErrInvalidPath
		}
		amountIn = env.Value
	case MethodSwapExactTokensForETH:
		if call.Path[len(call.Path)-1] != r.wrappedNative {
			return nil, ErrInvalidPath
		}
		amountIn = call.AmountIn
	default:
		amountIn = call.AmountIn
	}

	amounts, err := r.GetAmountsOut(tx, amountIn, call.Path)
	if err != nil {
		return nil, err
	}
	if amounts[len(amounts)-1].Cmp(call.AmountOutMin) < 0 {
		return nil, ErrInsufficientOutputAmount
	}

	firstPair := PairAddress(call.Path[0], call.Path[1])
	if call.Method == MethodSwapExactETHForTokens {
		if err := tx.Transfer(ledger.NativeAsset, env.Self, firstPair, amountIn); err != nil {
			return nil, err
		}
	} else {
		if err := tx.TransferFrom(call.Path[0], env.Self, env.Caller, firstPair, amountIn); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransferFromFailed, err)
		}
	}

	if err := r.swap(tx, amounts, call.Path, call.To); err != nil {
		return nil, err
	}
	return PackAmounts(call.Method, amounts)
}

func (r *UniswapV2) swap(tx *ledger.Tx, amounts []*big.Int, path []common.Address, to common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		pair := PairAddress(path[i], path[i+1])
		recipient := to
		if i < len(path)-2 {
			recipient = PairAddress(path[i+1], path[i+2])
		}
		if err := tx.Transfer(r.Asset(path[i+1]), pair, recipient, amounts[i+1]); err != nil {
			return fmt.Errorf("hop %d: %w", i, err)
		}
	}
	return nil
}
