package router

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/dex-proxy/internal/amm"
	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
)

var (
	routerAddr = common.HexToAddress("0xd0")
	wrapped    = common.HexToAddress("0xee")
	tokenA     = common.HexToAddress("0xa0")
	tokenB     = common.HexToAddress("0xb0")
	trader     = common.HexToAddress("0xc1")
)

func TestDecodeSwapCall(t *testing.T) {
	path := []common.Address{tokenA, tokenB}
	deadline := big.NewInt(1_700_000_000)

	data, err := PackSwapExactTokensForTokens(big.NewInt(1000), big.NewInt(900), path, trader, deadline)
	require.NoError(t, err)
	call, err := DecodeSwapCall(data)
	require.NoError(t, err)
	assert.Equal(t, MethodSwapExactTokensForTokens, call.Method)
	assert.Equal(t, int64(1000), call.AmountIn.Int64())
	assert.Equal(t, int64(900), call.AmountOutMin.Int64())
	assert.Equal(t, path, call.Path)
	assert.Equal(t, trader, call.To)
	assert.Equal(t, deadline.Int64(), call.Deadline.Int64())

	data, err = PackSwapExactETHForTokens(big.NewInt(5), []common.Address{wrapped, tokenA}, trader, deadline)
	require.NoError(t, err)
	call, err = DecodeSwapCall(data)
	require.NoError(t, err)
	assert.Equal(t, MethodSwapExactETHForTokens, call.Method)
	assert.Nil(t, call.AmountIn)
	assert.Equal(t, int64(5), call.AmountOutMin.Int64())
}

func TestDecodeSwapCall_Errors(t *testing.T) {
	_, err := DecodeSwapCall([]byte{1, 2})
	assert.ErrorIs(t, err, ErrShortPayload)

	_, err = DecodeSwapCall([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.ErrorIs(t, err, ErrUnknownMethod)

	data, err := PackSwapExactTokensForETH(big.NewInt(1), big.NewInt(1), []common.Address{tokenA, wrapped}, trader, big.NewInt(1))
	require.NoError(t, err)
	_, err = DecodeSwapCall(data[:40])
	assert.ErrorIs(t, err, ErrBadArguments)
}

func TestPairAddress_OrderIndependent(t *testing.T) {
	assert.Equal(t, PairAddress(tokenA, tokenB), PairAddress(tokenB, tokenA))
	assert.NotEqual(t, PairAddress(tokenA, tokenB), PairAddress(tokenA, wrapped))
}

type routerFixture struct {
	ctx      context.Context
	ledger   *ledger.Ledger
	dex      *UniswapV2
	deadline *big.Int
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	now := time.Unix(1_700_000_000, 0)

	f := &routerFixture{
		ctx:      context.Background(),
		ledger:   ledger.New(ledger.Config{Now: func() time.Time { return now }, Logger: logger}),
		dex:      NewUniswapV2(routerAddr, wrapped),
		deadline: big.NewInt(now.Add(time.Minute).Unix()),
	}
	require.NoError(t, f.ledger.Deploy(routerAddr, f.dex))
	require.NoError(t, f.ledger.CreateToken(f.ctx, tokenA, ledger.Token{Symbol: "A"}))
	require.NoError(t, f.ledger.CreateToken(f.ctx, tokenB, ledger.Token{Symbol: "B"}))
	require.NoError(t, f.ledger.Execute(f.ctx, func(tx *ledger.Tx) error {
		if err := f.dex.AddLiquidity(tx, tokenA, tokenB, big.NewInt(1_000_000), big.NewInt(2_000_000)); err != nil {
			return err
		}
		if err := f.dex.AddLiquidity(tx, wrapped, tokenA, big.NewInt(1_000_000), big.NewInt(1_000_000)); err != nil {
			return err
		}
		if err := tx.Mint(tokenA, trader, big.NewInt(10_000)); err != nil {
			return err
		}
		if err := tx.Mint(ledger.NativeAsset, trader, big.NewInt(10_000)); err != nil {
			return err
		}
		return tx.Approve(tokenA, trader, routerAddr, big.NewInt(10_000))
	}))
	return f
}

func (f *routerFixture) call(value *big.Int, data []byte) error {
	return f.ledger.Execute(f.ctx, func(tx *ledger.Tx) error {
		_, err := tx.Call(f.ctx, trader, routerAddr, value, data)
		return err
	})
}

func TestUniswapV2_TokensForTokens(t *testing.T) {
	f := newRouterFixture(t)
	want, err := amm.GetAmountOut(big.NewInt(1000), big.NewInt(1_000_000), big.NewInt(2_000_000))
	require.NoError(t, err)

	data, err := PackSwapExactTokensForTokens(big.NewInt(1000), want, []common.Address{tokenA, tokenB}, trader, f.deadline)
	require.NoError(t, err)
	require.NoError(t, f.call(nil, data))

	got, err := f.ledger.BalanceOf(tokenB, trader)
	require.NoError(t, err)
	assert.Equal(t, want.String(), got.String())

	reserveA, err := f.ledger.BalanceOf(tokenA, PairAddress(tokenA, tokenB))
	require.NoError(t, err)
	assert.Equal(t, int64(1_001_000), reserveA.Int64())
}

func TestUniswapV2_MultiHopFromNative(t *testing.T) {
	f := newRouterFixture(t)
	path := []common.Address{wrapped, tokenA, tokenB}

	var amounts []*big.Int
	require.NoError(t, f.ledger.Execute(f.ctx, func(tx *ledger.Tx) error {
		var err error
		amounts, err = f.dex.GetAmountsOut(tx, big.NewInt(500), path)
		return err
	}))
	require.Len(t, amounts, 3)

	data, err := PackSwapExactETHForTokens(big.NewInt(0), path, trader, f.deadline)
	require.NoError(t, err)
	require.NoError(t, f.call(big.NewInt(500), data))

	got, err := f.ledger.BalanceOf(tokenB, trader)
	require.NoError(t, err)
	assert.Equal(t, amounts[2].String(), got.String())

	native, err := f.ledger.BalanceOf(ledger.NativeAsset, trader)
	require.NoError(t, err)
	assert.Equal(t, int64(9_500), native.Int64())
}

func TestUniswapV2_Failures(t *testing.T) {
	f := newRouterFixture(t)
	path := []common.Address{tokenA, tokenB}

	data, err := PackSwapExactTokensForTokens(big.NewInt(1000), big.NewInt(0), path, trader, big.NewInt(1))
	require.NoError(t, err)
	assert.ErrorIs(t, f.call(nil, data), ErrExpired)

	data, err = PackSwapExactTokensForTokens(big.NewInt(1000), big.NewInt(1_000_000), path, trader, f.deadline)
	require.NoError(t, err)
	assert.ErrorIs(t, f.call(nil, data), ErrInsufficientOutputAmount)

	data, err = PackSwapExactTokensForTokens(big.NewInt(20_000), big.NewInt(0), path, trader, f.deadline)
	require.NoError(t, err)
	err = f.call(nil, data)
	assert.ErrorIs(t, err, ErrTransferFromFailed)
	assert.ErrorIs(t, err, ledger.ErrTransferExceedsBalance)

	data, err = PackSwapExactETHForTokens(big.NewInt(0), path, trader, f.deadline)
	require.NoError(t, err)
	assert.ErrorIs(t, f.call(big.NewInt(1), data), ErrInvalidPath)

	data, err = PackSwapExactTokensForETH(big.NewInt(10), big.NewInt(0), path, trader, f.deadline)
	require.NoError(t, err)
	assert.ErrorIs(t, f.call(nil, data), ErrInvalidPath)
}
