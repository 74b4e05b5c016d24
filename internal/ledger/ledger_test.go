package ledger

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
	token = common.HexToAddress("0x70c3")
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	l := New(Config{Logger: logger})
	require.NoError(t, l.CreateToken(context.Background(), token, Token{Symbol: "TKN", Decimals: 18}))
	require.NoError(t, l.Execute(context.Background(), func(tx *Tx) error {
		if err := tx.Mint(NativeAsset, alice, big.NewInt(100)); err != nil {
			return err
		}
		return tx.Mint(token, alice, big.NewInt(1000))
	}))
	return l
}

func balanceOf(t *testing.T, l *Ledger, asset, holder common.Address) int64 {
	t.Helper()
	b, err := l.BalanceOf(asset, holder)
	require.NoError(t, err)
	return b.Int64()
}

func TestExecute_RollsBackOnError(t *testing.T) {
	l := newTestLedger(t)
	boom := errors.New("boom")

	err := l.Execute(context.Background(), func(tx *Tx) error {
		require.NoError(t, tx.Transfer(token, alice, bob, big.NewInt(400)))
		require.NoError(t, tx.Transfer(NativeAsset, alice, bob, big.NewInt(40)))
		require.NoError(t, tx.Approve(token, alice, bob, big.NewInt(5)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int64(1000), balanceOf(t, l, token, alice))
	assert.Equal(t, int64(0), balanceOf(t, l, token, bob))
	assert.Equal(t, int64(100), balanceOf(t, l, NativeAsset, alice))

	require.NoError(t, l.Execute(context.Background(), func(tx *Tx) error {
		a, err := tx.Allowance(token, alice, bob)
		require.NoError(t, err)
		assert.Zero(t, a.Sign())
		return nil
	}))
}

func TestExecute_CancelledContext(t *testing.T) {
	l := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Execute(ctx, func(tx *Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransfer(t *testing.T) {
	l := newTestLedger(t)
	err := l.Execute(context.Background(), func(tx *Tx) error {
		return tx.Transfer(token, alice, bob, big.NewInt(1001))
	})
	assert.ErrorIs(t, err, ErrTransferExceedsBalance)

	err = l.Execute(context.Background(), func(tx *Tx) error {
		return tx.Transfer(NativeAsset, alice, bob, big.NewInt(101))
	})
	assert.ErrorIs(t, err, ErrInsufficientNative)

	err = l.Execute(context.Background(), func(tx *Tx) error {
		return tx.Transfer(token, alice, bob, big.NewInt(-1))
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	err = l.Execute(context.Background(), func(tx *Tx) error {
		return tx.Transfer(common.HexToAddress("0x404"), alice, bob, big.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestTransferFrom_BalanceCheckedBeforeAllowance(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// no allowance and not enough balance: the balance error wins
	err := l.Execute(ctx, func(tx *Tx) error {
		return tx.TransferFrom(token, bob, alice, bob, big.NewInt(2000))
	})
	assert.ErrorIs(t, err, ErrTransferExceedsBalance)

	err = l.Execute(ctx, func(tx *Tx) error {
		return tx.TransferFrom(token, bob, alice, bob, big.NewInt(10))
	})
	assert.ErrorIs(t, err, ErrTransferExceedsAllowance)

	require.NoError(t, l.Execute(ctx, func(tx *Tx) error {
		if err := tx.Approve(token, alice, bob, big.NewInt(30)); err != nil {
			return err
		}
		if err := tx.TransferFrom(token, bob, alice, bob, big.NewInt(10)); err != nil {
			return err
		}
		left, err := tx.Allowance(token, alice, bob)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(20), left.Int64())
		return nil
	}))
	assert.Equal(t, int64(10), balanceOf(t, l, token, bob))

	err = l.Execute(ctx, func(tx *Tx) error {
		return tx.TransferFrom(NativeAsset, bob, alice, bob, big.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrNativeAllowance)
}

type echoContract struct {
	env Env
}

func (c *echoContract) Call(_ context.Context, env Env, payload []byte) ([]byte, error) {
	c.env = env
	return payload, nil
}

func TestCall(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	contract := common.HexToAddress("0xc0de")
	echo := &echoContract{}
	require.NoError(t, l.Deploy(contract, echo))
	assert.ErrorIs(t, l.Deploy(contract, echo), ErrContractExists)

	require.NoError(t, l.Execute(ctx, func(tx *Tx) error {
		out, err := tx.Call(ctx, alice, contract, big.NewInt(7), []byte("hi"))
		if err != nil {
			return err
		}
		assert.Equal(t, []byte("hi"), out)
		return nil
	}))
	assert.Equal(t, alice, echo.env.Caller)
	assert.Equal(t, contract, echo.env.Self)
	assert.Equal(t, int64(7), echo.env.Value.Int64())
	assert.Equal(t, int64(7), balanceOf(t, l, NativeAsset, contract))

	// plain value transfer to an address without code
	require.NoError(t, l.Execute(ctx, func(tx *Tx) error {
		_, err := tx.Call(ctx, alice, bob, big.NewInt(3), nil)
		return err
	}))
	assert.Equal(t, int64(3), balanceOf(t, l, NativeAsset, bob))

	err := l.Execute(ctx, func(tx *Tx) error {
		_, err := tx.Call(ctx, alice, bob, nil, []byte{1})
		return err
	})
	assert.ErrorIs(t, err, ErrNoContract)
}

// panickingContract moves funds out of the caller, then panics
type panickingContract struct{}

func (panickingContract) Call(_ context.Context, env Env, _ []byte) ([]byte, error) {
	if err := env.Tx.Transfer(token, env.Caller, env.Self, big.NewInt(600)); err != nil {
		return nil, err
	}
	panic("contract bug")
}

func TestExecute_RollsBackOnPanic(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	contract := common.HexToAddress("0xbad")
	require.NoError(t, l.Deploy(contract, panickingContract{}))

	assert.PanicsWithValue(t, "contract bug", func() {
		_ = l.Execute(ctx, func(tx *Tx) error {
			_, err := tx.Call(ctx, alice, contract, big.NewInt(10), nil)
			return err
		})
	})

	assert.Equal(t, int64(1000), balanceOf(t, l, token, alice))
	assert.Equal(t, int64(0), balanceOf(t, l, token, contract))
	assert.Equal(t, int64(100), balanceOf(t, l, NativeAsset, alice))

	// the ledger lock was released
	require.NoError(t, l.Execute(ctx, func(tx *Tx) error {
		return tx.Transfer(token, alice, bob, big.NewInt(1))
	}))
	assert.Equal(t, int64(1), balanceOf(t, l, token, bob))
}

func TestTokenInfo(t *testing.T) {
	l := newTestLedger(t)
	info, err := l.TokenInfo(token)
	require.NoError(t, err)
	assert.Equal(t, "TKN", info.Symbol)

	_, err = l.TokenInfo(bob)
	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.ErrorIs(t, l.CreateToken(context.Background(), token, Token{}), ErrTokenExists)
}
