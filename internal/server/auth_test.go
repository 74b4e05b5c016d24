package server

import (
	"context"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
)

func balanceOf(t *testing.T, env *testEnv, asset, holder common.Address) string {
	t.Helper()
	bal, err := env.ledger.BalanceOf(asset, holder)
	require.NoError(t, err)
	return bal.String()
}

func TestAuth_UnsignedRequestsRejected(t *testing.T) {
	env := setupServer(t, ServerConfig{APIKey: testAPIKey})
	apiKey := map[string]string{"X-API-Key": testAPIKey}

	rec := env.do(t, http.MethodPost, "/v1/swap", swapBody(t, 1000), apiKey)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ErrMissingSignature.Error(), decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPut, "/v1/admin/promoter-fee", RateRequest{Value: 1}, apiKey)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, "1000000", balanceOf(t, env, tokenA, callerAddr))
	assert.Equal(t, uint64(150), env.engine.PromoterFee())
}

func TestAuth_CallerHeaderIsIgnored(t *testing.T) {
	env := setupServer(t, ServerConfig{})
	require.NoError(t, env.ledger.Execute(context.Background(), func(tx *ledger.Tx) error {
		return tx.Mint(tokenB, engineAddr, big.NewInt(1000))
	}))

	path := "/v1/admin/withdraw"
	raw := marshal(t, WithdrawRequest{Asset: tokenB.Hex(), Amount: "1000", Receiver: strangerAddr.Hex()})
	headers := sign(t, strangerKey, http.MethodPost, path, raw, time.Now().Unix())
	headers["X-Caller"] = ownerAddr.Hex()

	rec := env.send(t, http.MethodPost, path, raw, headers)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "1000", balanceOf(t, env, tokenB, engineAddr))
	assert.Equal(t, "0", balanceOf(t, env, tokenB, strangerAddr))
}

func TestAuth_SwapActsForSignerOnly(t *testing.T) {
	env := setupServer(t, ServerConfig{})

	// a stranger can not spend the caller's approval
	body := swapBody(t, 500_000)
	body.IntegratorFee.FeeTarget = strangerAddr.Hex()
	rec := env.signed(t, strangerKey, http.MethodPost, "/v1/swap", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "1000000", balanceOf(t, env, tokenA, callerAddr))
	assert.Equal(t, "0", balanceOf(t, env, tokenB, strangerAddr))
}

func TestAuth_TamperedBodyChangesSigner(t *testing.T) {
	env := setupServer(t, ServerConfig{})
	path := "/v1/swap"
	ts := time.Now().Unix()

	signedBody := marshal(t, swapBody(t, 500_000))
	headers := sign(t, callerKey, http.MethodPost, path, signedBody, ts)

	tampered := swapBody(t, 500_000)
	tampered.IntegratorFee.FeeTarget = strangerAddr.Hex()
	rec := env.send(t, http.MethodPost, path, marshal(t, tampered), headers)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "1000000", balanceOf(t, env, tokenA, callerAddr))
	assert.Equal(t, "0", balanceOf(t, env, tokenB, strangerAddr))

	// the untouched request still goes through
	rec = env.send(t, http.MethodPost, path, signedBody, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, callerAddr.Hex(), decode[SwapResponse](t, rec).Receipt.Caller)
}

func TestAuth_ReplayedRequestRejected(t *testing.T) {
	env := setupServer(t, ServerConfig{})
	path := "/v1/admin/fee-values"
	raw := marshal(t, FeeValuesRequest{Values: []uint64{10}})
	headers := sign(t, ownerKey, http.MethodPost, path, raw, time.Now().Unix())

	rec := env.send(t, http.MethodPost, path, raw, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.send(t, http.MethodPost, path, raw, headers)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ErrSignatureReplayed.Error(), decode[ErrorResponse](t, rec).Error)
}

func TestAuth_TimestampWindow(t *testing.T) {
	env := setupServer(t, ServerConfig{SignatureWindow: time.Minute})
	path := "/v1/admin/promoter-fee"
	raw := marshal(t, RateRequest{Value: 100})

	for _, ts := range []int64{
		time.Now().Add(-10 * time.Minute).Unix(),
		time.Now().Add(10 * time.Minute).Unix(),
	} {
		rec := env.send(t, http.MethodPut, path, raw, sign(t, ownerKey, http.MethodPut, path, raw, ts))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, ErrSignatureExpired.Error(), decode[ErrorResponse](t, rec).Error)
	}

	headers := sign(t, ownerKey, http.MethodPut, path, raw, time.Now().Unix())
	headers[TimestampHeader] = "soon"
	rec := env.send(t, http.MethodPut, path, raw, headers)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, uint64(150), env.engine.PromoterFee())
}

func TestAuth_WalletRecoveryID(t *testing.T) {
	env := setupServer(t, ServerConfig{})
	path := "/v1/admin/promoter-fee"
	raw := marshal(t, RateRequest{Value: 100})
	headers := sign(t, ownerKey, http.MethodPut, path, raw, time.Now().Unix())

	sig, err := hexutil.Decode(headers[SignatureHeader])
	require.NoError(t, err)
	sig[64] += 27
	headers[SignatureHeader] = hexutil.Encode(sig)

	rec := env.send(t, http.MethodPut, path, raw, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(100), env.engine.PromoterFee())
}

func TestRecoverSigner(t *testing.T) {
	payload := SigningPayload(http.MethodGet, "/v1/x", 1, nil)
	sig, err := SignRequest(callerKey, http.MethodGet, "/v1/x", 1, nil)
	require.NoError(t, err)

	addr, err := recoverSigner(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, callerAddr, addr)

	for _, bad := range []string{"", "0x", "0x1234", "nothex"} {
		_, err := recoverSigner(payload, bad)
		assert.ErrorIs(t, err, ErrInvalidSignature, bad)
	}
}

func TestMemoryReplayGuard(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := newMemoryReplayGuard(func() time.Time { return now })
	ctx := context.Background()

	ok, err := g.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = g.Claim(ctx, "k", time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = g.Claim(ctx, "k", time.Minute)
	assert.True(t, ok)
}
