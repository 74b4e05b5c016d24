package fees

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aman-zulfiqar/dex-proxy/internal/whitelist"
)

var (
	ErrZeroDivisor         = errors.New("fee divisor must be positive")
	ErrFeeExceedsDivisor   = errors.New("fee can not be greater than fee divisor")
	ErrBaseBelowDiscount   = errors.New("base fee minus promoter fee must be greater than or equal to discount fee")
	ErrDiscountAboveBase   = errors.New("discount fee plus promoter fee must be less than or equal to base fee")
	ErrSameProviderTarget  = errors.New("new provider fee target must not be equal to the current one")
	ErrFeeValueUnsupported = errors.New("fee value is not supported")
)

// Params is an immutable view of the rate configuration.
type Params struct {
	FeeDivisor          uint64         `json:"fee_divisor"`
	PromoterFee         uint64         `json:"promoter_fee"`
	ProviderBaseFee     uint64         `json:"provider_base_fee"`
	ProviderDiscountFee uint64         `json:"provider_discount_fee"`
	ProviderFeeTarget   common.Address `json:"provider_fee_target"`
}

// IntegratorBonus is what the integrator gains when a promoter takes part of
// the provider share. Never negative while the rate invariant holds.
func (p Params) IntegratorBonus() uint64 {
	return p.ProviderBaseFee - p.ProviderDiscountFee - p.PromoterFee
}

// Parameters holds the fee configuration. The divisor is fixed at
// construction; rates change only through the setters, each of which keeps
// ProviderBaseFee >= ProviderDiscountFee + PromoterFee.
type Parameters struct {
	mu     sync.RWMutex
	params Params
	values *whitelist.Set[uint64]
}

func New(divisor, promoterFee, baseFee, discountFee uint64, target common.Address, feeValues []uint64) (*Parameters, error) {
	if divisor == 0 {
		return nil, ErrZeroDivisor
	}
	for _, v := range []uint64{promoterFee, baseFee, discountFee} {
		if v > divisor {
			return nil, fmt.Errorf("initial rate %d: %w", v, ErrFeeExceedsDivisor)
		}
	}
	if baseFee < discountFee+promoterFee {
		return nil, ErrBaseBelowDiscount
	}

	p := &Parameters{
		params: Params{
			FeeDivisor:          divisor,
			PromoterFee:         promoterFee,
			ProviderBaseFee:     baseFee,
			ProviderDiscountFee: discountFee,
			ProviderFeeTarget:   target,
		},
		values: whitelist.NewSet[uint64](),
	}
	if err := p.SetAvailableFeeValues(feeValues); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parameters) Snapshot() Params {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.params
}

func (p *Parameters) FeeDivisor() uint64 {
	return p.Snapshot().FeeDivisor
}

// SetPromoterFee only bounds the value by the divisor. The relation to the
// provider rates is enforced when those are set.
func (p *Parameters) SetPromoterFee(v uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v > p.params.FeeDivisor {
		return ErrFeeExceedsDivisor
	}
	p.params.PromoterFee = v
	return nil
}

func (p *Parameters) SetProviderBaseFee(v uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v > p.params.FeeDivisor {
		return ErrFeeExceedsDivisor
	}
	if v < p.params.ProviderDiscountFee+p.params.PromoterFee {
		return ErrBaseBelowDiscount
	}
	p.params.ProviderBaseFee = v
	return nil
}

func (p *Parameters) SetProviderDiscountFee(v uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v > p.params.FeeDivisor {
		return ErrFeeExceedsDivisor
	}
	if p.params.ProviderBaseFee < v+p.params.PromoterFee {
		return ErrDiscountAboveBase
	}
	p.params.ProviderDiscountFee = v
	return nil
}

func (p *Parameters) SetProviderFeeTarget(addr common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if addr == p.params.ProviderFeeTarget {
		return ErrSameProviderTarget
	}
	p.params.ProviderFeeTarget = addr
	return nil
}

// SetAvailableFeeValues adds values to the set. Either all values are added
// or none are.
func (p *Parameters) SetAvailableFeeValues(values []uint64) error {
	divisor := p.FeeDivisor()
	for _, v := range values {
		if v > divisor {
			return fmt.Errorf("fee value %d: %w", v, ErrFeeExceedsDivisor)
		}
	}
	p.values.Add(values...)
	return nil
}

func (p *Parameters) RemoveFeeValue(v uint64) {
	p.values.Remove(v)
}

func (p *Parameters) IsFeeValueAvailable(v uint64) bool {
	return p.values.Contains(v)
}

func (p *Parameters) FeeValues() []uint64 {
	return p.values.Members()
}
