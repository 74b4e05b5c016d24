package models

import (
	"math/big"
	"time"
)

// SwapReceipt records the outcome of one committed swap through the proxy.
type SwapReceipt struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Caller    string    `json:"caller"`
	Router    string    `json:"router"`
	FromToken string    `json:"from_token"`
	ToToken   string    `json:"to_token"`
	AmountIn  *big.Int  `json:"amount_in"`
	Output    *big.Int  `json:"output"` // measured by balance delta

	IntegratorFee    uint64 `json:"integrator_fee"`
	IntegratorTarget string `json:"integrator_target"`
	Promoter         string `json:"promoter,omitempty"`
	ProviderTarget   string `json:"provider_target"`

	ProviderShare   *big.Int `json:"provider_share"`
	PromoterShare   *big.Int `json:"promoter_share"`
	IntegratorShare *big.Int `json:"integrator_share"`
	CallerShare     *big.Int `json:"caller_share"`
}
