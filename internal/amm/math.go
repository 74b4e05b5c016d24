package amm

import (
	"errors"
	"math"
	"math/big"
)

// Default pool fee: 0.3% taken from the input.
const (
	FeeNumerator   = 3
	FeeDenominator = 1000
)

var (
	ErrInsufficientInput     = errors.New("insufficient input amount")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// GetAmountOut computes output for a constant-product pool (x * y = k) with
// the fee applied to the input.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	// amountInWithFee = amountIn * (FeeDenominator - FeeNumerator)
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(FeeDenominator-FeeNumerator))

	// out = (amountInWithFee * reserveOut) / (reserveIn * FeeDenominator + amountInWithFee)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(FeeDenominator))
	denominator.Add(denominator, amountInWithFee)

	return numerator.Div(numerator, denominator), nil
}

// PriceImpact is 1 - executionRate/idealRate, floored at zero.
func PriceImpact(amountIn, amountOut, reserveIn, reserveOut *big.Int) float64 {
	if amountIn.Sign() == 0 || reserveIn.Sign() == 0 {
		return 0
	}
	idealRate, _ := new(big.Rat).SetFrac(reserveOut, reserveIn).Float64()
	executionRate, _ := new(big.Rat).SetFrac(amountOut, amountIn).Float64()
	if idealRate <= 0 {
		return 0
	}
	return math.Max(0, 1-(executionRate/idealRate))
}

// ApplySlippage calculates minimum output with slippage tolerance
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut *big.Int, slippageBps uint16) *big.Int {
	if amountOut == nil || amountOut.Sign() <= 0 || slippageBps >= 10000 {
		return new(big.Int)
	}

	// minOut = amountOut * (10000 - slippageBps) / 10000
	result := new(big.Int).Mul(amountOut, big.NewInt(int64(10000-slippageBps)))
	return result.Div(result, big.NewInt(10000))
}
