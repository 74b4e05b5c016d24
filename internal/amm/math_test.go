package amm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAmountOut(t *testing.T) {
	// 1000 in against 1_000_000/1_000_000: 997000*1e6 / (1e9 + 997000)
	out, err := GetAmountOut(big.NewInt(1000), big.NewInt(1_000_000), big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, int64(996), out.Int64())
}

func TestGetAmountOut_NeverDrainsPool(t *testing.T) {
	reserveOut := big.NewInt(500)
	out, err := GetAmountOut(big.NewInt(1_000_000_000), big.NewInt(10), reserveOut)
	require.NoError(t, err)
	assert.Equal(t, -1, out.Cmp(reserveOut))
}

func TestGetAmountOut_InvalidInputs(t *testing.T) {
	_, err := GetAmountOut(big.NewInt(0), big.NewInt(1), big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientInput)

	_, err = GetAmountOut(big.NewInt(1), big.NewInt(0), big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = GetAmountOut(big.NewInt(1), big.NewInt(1), nil)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestApplySlippage(t *testing.T) {
	assert.Equal(t, int64(9900), ApplySlippage(big.NewInt(10000), 100).Int64())
	assert.Equal(t, int64(0), ApplySlippage(big.NewInt(10000), 10000).Int64())
	assert.Equal(t, int64(0), ApplySlippage(nil, 100).Int64())
}

func TestPriceImpact(t *testing.T) {
	impact := PriceImpact(big.NewInt(1000), big.NewInt(996), big.NewInt(1_000_000), big.NewInt(1_000_000))
	assert.InDelta(t, 0.004, impact, 1e-9)
	assert.Zero(t, PriceImpact(big.NewInt(0), big.NewInt(0), big.NewInt(1), big.NewInt(1)))
}
