package server

import (
	"github.com/aman-zulfiqar/dex-proxy/internal/models"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// FeesResponse is the current fee schedule
type FeesResponse struct {
	FeeDivisor          uint64   `json:"fee_divisor"`
	PromoterFee         uint64   `json:"promoter_fee"`
	ProviderBaseFee     uint64   `json:"provider_base_fee"`
	ProviderDiscountFee uint64   `json:"provider_discount_fee"`
	ProviderFeeTarget   string   `json:"provider_fee_target"`
	AvailableFeeValues  []uint64 `json:"available_fee_values"`
}

// StateResponse is returned by every configuration mutation
type StateResponse struct {
	Owner   string       `json:"owner"`
	Fees    FeesResponse `json:"fees"`
	Routers []string     `json:"routers"`
}

// MembershipResponse answers fee value and router membership queries
type MembershipResponse struct {
	Value     string `json:"value"`
	Supported bool   `json:"supported"`
}

type RoutersResponse struct {
	Items []string `json:"items"`
}

type AddressResponse struct {
	Address string `json:"address"`
}

type BalanceResponse struct {
	Asset   string `json:"asset"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"` // decimal
}

// IntegratorFeeRequest is the per-call integrator fee
type IntegratorFeeRequest struct {
	Fee       uint64 `json:"fee"`
	FeeTarget string `json:"fee_target"`
}

// SwapRequest is the body of POST /v1/swap. Amounts are decimal strings and
// data is 0x-prefixed router call data. The caller is the request signer.
type SwapRequest struct {
	Value         string               `json:"value"` // native value attached to the call
	FromToken     string               `json:"from_token"`
	ToToken       string               `json:"to_token"`
	Amount        string               `json:"amount"`
	Router        string               `json:"router"`
	Data          string               `json:"data"`
	IntegratorFee IntegratorFeeRequest `json:"integrator_fee"`
	Promoter      string               `json:"promoter,omitempty"` // selects the promoter split
}

// SwapResponse wraps the receipt of a committed swap
type SwapResponse struct {
	Receipt *models.SwapReceipt `json:"receipt"`
}

// RateRequest sets a single fee rate
type RateRequest struct {
	Value uint64 `json:"value"`
}

// AddressRequest carries a single address (fee target, new owner)
type AddressRequest struct {
	Address string `json:"address"`
}

type FeeValuesRequest struct {
	Values []uint64 `json:"values"`
}

type DexesRequest struct {
	Dexes []string `json:"dexes"`
}

type WithdrawRequest struct {
	Asset    string `json:"asset"`
	Amount   string `json:"amount"`
	Receiver string `json:"receiver"`
}

// Dev-mode requests for seeding the in-memory ledger

type CreateTokenRequest struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type MintRequest struct {
	Asset  string `json:"asset"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type ApproveRequest struct {
	Token   string `json:"token"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type LiquidityRequest struct {
	Router  string `json:"router"`
	TokenA  string `json:"token_a"`
	TokenB  string `json:"token_b"`
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
}
