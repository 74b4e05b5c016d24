package proxy

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/dex-proxy/internal/constants"
	"github.com/aman-zulfiqar/dex-proxy/internal/fees"
	"github.com/aman-zulfiqar/dex-proxy/internal/models"
	"github.com/aman-zulfiqar/dex-proxy/internal/storage"
)

// IntegratorFee is chosen per call and never stored.
type IntegratorFee struct {
	Fee       uint64         `json:"fee"`
	FeeTarget common.Address `json:"fee_target"`
}

// SwapRequest carries the caller-supplied swap arguments. Data is forwarded
// to Router untouched and must direct the router output to the engine.
type SwapRequest struct {
	FromToken     common.Address
	ToToken       common.Address
	Amount        *big.Int
	Router        common.Address
	Data          []byte
	IntegratorFee IntegratorFee
}

// SwapResult is returned for a committed swap.
type SwapResult struct {
	Split   fees.Split
	Receipt *models.SwapReceipt
}

// State is the persisted configuration of an engine.
type State struct {
	Owner     common.Address   `json:"owner"`
	Params    fees.Params      `json:"params"`
	FeeValues []uint64         `json:"fee_values"`
	Routers   []common.Address `json:"routers"`
}

// Config holds the construction parameters of an engine, in the order the
// deployment takes them after the addresses.
type Config struct {
	Address common.Address // the engine's own ledger account
	Owner   common.Address

	PromoterFee         uint64
	ProviderBaseFee     uint64
	ProviderDiscountFee uint64
	ProviderFeeTarget   common.Address
	AvailableFeeValues  []uint64
	Dexes               []common.Address

	// FeeDivisor defaults to constants.FeeDivisor when zero.
	FeeDivisor uint64

	Logger *logrus.Logger
	Sinks  []storage.ReceiptSink
}

// DefaultConfig returns the production fee schedule
func DefaultConfig() Config {
	return Config{
		Owner:               common.HexToAddress(constants.ProdOwner),
		PromoterFee:         constants.ProdPromoterFee,
		ProviderBaseFee:     constants.ProdProviderBaseFee,
		ProviderDiscountFee: constants.ProdProviderDiscountFee,
		ProviderFeeTarget:   common.HexToAddress(constants.ProdProviderFeeTarget),
		AvailableFeeValues:  append([]uint64(nil), constants.ProdAvailableFeeValues...),
		FeeDivisor:          constants.FeeDivisor,
	}
}

// WithState overlays a persisted state onto cfg.
func (cfg Config) WithState(st State) Config {
	cfg.Owner = st.Owner
	cfg.PromoterFee = st.Params.PromoterFee
	cfg.ProviderBaseFee = st.Params.ProviderBaseFee
	cfg.ProviderDiscountFee = st.Params.ProviderDiscountFee
	cfg.ProviderFeeTarget = st.Params.ProviderFeeTarget
	cfg.AvailableFeeValues = append([]uint64(nil), st.FeeValues...)
	cfg.Dexes = append([]common.Address(nil), st.Routers...)
	if st.Params.FeeDivisor != 0 {
		cfg.FeeDivisor = st.Params.FeeDivisor
	}
	return cfg
}
