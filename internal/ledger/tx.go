package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Tx is the handle to state inside one Execute call. It must not be used
// after Execute returns.
type Tx struct {
	l      *Ledger
	st     *state
	now    time.Time
	closed bool
}

// Now is the block time of the transaction.
func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) token(addr common.Address) (*tokenState, error) {
	if tx.closed {
		return nil, fmt.Errorf("ledger: transaction already finished")
	}
	t, ok := tx.st.tokens[addr]
	if !ok {
		return nil, fmt.Errorf("%s: %w", addr.Hex(), ErrUnknownToken)
	}
	return t, nil
}

func (tx *Tx) CreateToken(addr common.Address, t Token) error {
	if addr == NativeAsset {
		return fmt.Errorf("token address can not be the native asset")
	}
	if _, ok := tx.st.tokens[addr]; ok {
		return fmt.Errorf("%s: %w", addr.Hex(), ErrTokenExists)
	}
	tx.st.tokens[addr] = &tokenState{
		info:       t,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
	return nil
}

// BalanceOf returns a copy of holder's balance of asset.
func (tx *Tx) BalanceOf(asset, holder common.Address) (*big.Int, error) {
	if asset == NativeAsset {
		return new(big.Int).Set(balance(tx.st.native, holder)), nil
	}
	t, err := tx.token(asset)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(balance(t.balances, holder)), nil
}

// Mint credits amount of asset to holder out of thin air. Used for genesis
// funding and liquidity seeding.
func (tx *Tx) Mint(asset, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	m := tx.st.native
	if asset != NativeAsset {
		t, err := tx.token(asset)
		if err != nil {
			return err
		}
		m = t.balances
	}
	m[to] = new(big.Int).Add(balance(m, to), amount)
	return nil
}

// Transfer moves amount of asset from -> to, as initiated by from.
func (tx *Tx) Transfer(asset, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if asset == NativeAsset {
		return move(tx.st.native, from, to, amount, ErrInsufficientNative)
	}
	t, err := tx.token(asset)
	if err != nil {
		return err
	}
	return move(t.balances, from, to, amount, ErrTransferExceedsBalance)
}

// TransferFrom moves amount of token from -> to on behalf of spender. The
// balance is checked before the allowance.
func (tx *Tx) TransferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if token == NativeAsset {
		return ErrNativeAllowance
	}
	t, err := tx.token(token)
	if err != nil {
		return err
	}
	if balance(t.balances, from).Cmp(amount) < 0 {
		return ErrTransferExceedsBalance
	}
	allowed := new(big.Int)
	if spenders, ok := t.allowances[from]; ok {
		allowed = balance(spenders, spender)
	}
	if allowed.Cmp(amount) < 0 {
		return ErrTransferExceedsAllowance
	}
	if err := move(t.balances, from, to, amount, ErrTransferExceedsBalance); err != nil {
		return err
	}
	if spenders, ok := t.allowances[from]; ok {
		spenders[spender] = new(big.Int).Sub(allowed, amount)
	}
	return nil
}

// Approve sets the amount spender may pull from owner.
func (tx *Tx) Approve(token, owner, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if token == NativeAsset {
		return ErrNativeAllowance
	}
	t, err := tx.token(token)
	if err != nil {
		return err
	}
	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*big.Int)
		t.allowances[owner] = spenders
	}
	spenders[spender] = new(big.Int).Set(amount)
	return nil
}

func (tx *Tx) Allowance(token, owner, spender common.Address) (*big.Int, error) {
	t, err := tx.token(token)
	if err != nil {
		return nil, err
	}
	if spenders, ok := t.allowances[owner]; ok {
		return new(big.Int).Set(balance(spenders, spender)), nil
	}
	return new(big.Int), nil
}

// Call sends value from -> to and runs the contract deployed at to with
// payload. A call without payload to an address with no code is a plain
// native transfer.
func (tx *Tx) Call(ctx context.Context, from, to common.Address, value *big.Int, payload []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if value.Sign() > 0 {
		if err := tx.Transfer(NativeAsset, from, to, value); err != nil {
			return nil, err
		}
	}

	c, ok := tx.l.contract(to)
	if !ok {
		if len(payload) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", to.Hex(), ErrNoContract)
	}
	return c.Call(ctx, Env{Tx: tx, Self: to, Caller: from, Value: new(big.Int).Set(value)}, payload)
}

func move(m map[common.Address]*big.Int, from, to common.Address, amount *big.Int, shortfall error) error {
	fromBal := balance(m, from)
	if fromBal.Cmp(amount) < 0 {
		return shortfall
	}
	m[from] = new(big.Int).Sub(fromBal, amount)
	m[to] = new(big.Int).Add(balance(m, to), amount)
	return nil
}
