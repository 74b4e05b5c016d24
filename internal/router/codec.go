package router

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrShortPayload  = errors.New("router payload shorter than a method selector")
	ErrUnknownMethod = errors.New("unknown router method")
	ErrBadArguments  = errors.New("malformed router call arguments")
)

// SwapCall is a decoded UniswapV2 swap invocation. AmountIn is nil for
// swapExactETHForTokens, where the input is the attached value.
type SwapCall struct {
	Method       string
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Path         []common.Address
	To           common.Address
	Deadline     *big.Int
}

func PackSwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return uniswapV2ABI.Pack(MethodSwapExactETHForTokens, amountOutMin, path, to, deadline)
}

func PackSwapExactTokensForETH(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return uniswapV2ABI.Pack(MethodSwapExactTokensForETH, amountIn, amountOutMin, path, to, deadline)
}

func PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return uniswapV2ABI.Pack(MethodSwapExactTokensForTokens, amountIn, amountOutMin, path, to, deadline)
}

// DecodeSwapCall parses a payload produced by one of the Pack functions.
func DecodeSwapCall(payload []byte) (*SwapCall, error) {
	if len(payload) < 4 {
		return nil, ErrShortPayload
	}
	method, err := uniswapV2ABI.MethodById(payload[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, payload[:4])
	}
	args, err := method.Inputs.Unpack(payload[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArguments, err)
	}

	call := &SwapCall{Method: method.Name}
	var ok bool
	switch method.Name {
	case MethodSwapExactETHForTokens:
		if len(args) != 4 {
			return nil, ErrBadArguments
		}
		call.AmountOutMin, ok = args[0].(*big.Int)
		if !ok {
			return nil, ErrBadArguments
		}
		args = args[1:]
	default:
		if len(args) != 5 {
			return nil, ErrBadArguments
		}
		if call.AmountIn, ok = args[0].(*big.Int); !ok {
			return nil, ErrBadArguments
		}
		if call.AmountOutMin, ok = args[1].(*big.Int); !ok {
			return nil, ErrBadArguments
		}
		args = args[2:]
	}

	if call.Path, ok = args[0].([]common.Address); !ok {
		return nil, ErrBadArguments
	}
	if call.To, ok = args[1].(common.Address); !ok {
		return nil, ErrBadArguments
	}
	if call.Deadline, ok = args[2].(*big.Int); !ok {
		return nil, ErrBadArguments
	}
	return call, nil
}

// PackAmounts encodes the uint256[] return value of a swap method.
func PackAmounts(method string, amounts []*big.Int) ([]byte, error) {
	m, ok := uniswapV2ABI.Methods[method]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return m.Outputs.Pack(amounts)
}
