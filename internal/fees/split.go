package fees

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrNegativeOutput   = errors.New("swap output can not be negative")
	ErrFeesExceedOutput = errors.New("total fee exceeds swap output")
)

// Split is the division of one swap output among its beneficiaries.
// Provider + Promoter + Integrator + Caller == Output.
type Split struct {
	Output     sdkmath.Int
	Provider   sdkmath.Int
	Promoter   sdkmath.Int
	Integrator sdkmath.Int
	Caller     sdkmath.Int
}

// Fee is everything taken from the caller.
func (s Split) Fee() sdkmath.Int {
	return s.Provider.Add(s.Promoter).Add(s.Integrator)
}

// Split computes the shares of output with floor division against the
// divisor. Rounding residue stays with the caller.
//
// Without a promoter the provider takes the base rate. With one, the provider
// takes the discount rate, the promoter its own rate and the integrator gets
// the remaining base-rate difference on top of its fee.
func (p Params) Split(output sdkmath.Int, integratorFee uint64, withPromoter bool) (Split, error) {
	if output.IsNegative() {
		return Split{}, ErrNegativeOutput
	}

	s := Split{Output: output, Promoter: sdkmath.ZeroInt()}
	var err error

	if withPromoter {
		if s.Provider, err = p.share(output, p.ProviderDiscountFee); err != nil {
			return Split{}, err
		}
		if s.Promoter, err = p.share(output, p.PromoterFee); err != nil {
			return Split{}, err
		}
		if s.Integrator, err = p.share(output, integratorFee+p.IntegratorBonus()); err != nil {
			return Split{}, err
		}
	} else {
		if s.Provider, err = p.share(output, p.ProviderBaseFee); err != nil {
			return Split{}, err
		}
		if s.Integrator, err = p.share(output, integratorFee); err != nil {
			return Split{}, err
		}
	}

	s.Caller = output.Sub(s.Fee())
	if s.Caller.IsNegative() {
		return Split{}, ErrFeesExceedOutput
	}
	return s, nil
}

func (p Params) share(output sdkmath.Int, rate uint64) (sdkmath.Int, error) {
	if p.FeeDivisor == 0 {
		return sdkmath.Int{}, ErrZeroDivisor
	}
	num, err := output.SafeMul(sdkmath.NewIntFromUint64(rate))
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("fee share: %w", err)
	}
	return num.Quo(sdkmath.NewIntFromUint64(p.FeeDivisor)), nil
}
