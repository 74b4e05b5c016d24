package proxy

import (
	"errors"

	"github.com/aman-zulfiqar/dex-proxy/internal/access"
)

// Admissibility errors: the swap request itself is invalid.
var (
	ErrRouterNotSupported   = errors.New("passed dex is not supported")
	ErrFeeValueNotSupported = errors.New("passed fee value is not supported")
	ErrValueMismatch        = errors.New("transaction value must be equal to the amount parameter")
	ErrUnexpectedValue      = errors.New("transaction value must be zero when the input is a token")
	ErrAmountMismatch       = errors.New("value parameter is not equal to the swap data's amount parameter")
	ErrSameAsset            = errors.New("from and to assets must differ")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
)

var (
	// ErrNegativeRouterOutput means the router took toToken from the engine.
	ErrNegativeRouterOutput = errors.New("router output is negative")
	ErrReentrantCall        = errors.New("reentrant call")
	ErrNotOwner             = access.ErrNotOwner
)

// IsAdmissibility reports whether err rejects the shape of a swap request.
func IsAdmissibility(err error) bool {
	for _, target := range []error{
		ErrRouterNotSupported,
		ErrFeeValueNotSupported,
		ErrValueMismatch,
		ErrUnexpectedValue,
		ErrAmountMismatch,
		ErrSameAsset,
		ErrNonPositiveAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
