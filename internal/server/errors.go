package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/dex-proxy/internal/access"
	"github.com/aman-zulfiqar/dex-proxy/internal/fees"
	"github.com/aman-zulfiqar/dex-proxy/internal/ledger"
	"github.com/aman-zulfiqar/dex-proxy/internal/proxy"
	"github.com/aman-zulfiqar/dex-proxy/internal/router"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

var badRequestErrors = []error{
	fees.ErrFeeExceedsDivisor,
	fees.ErrBaseBelowDiscount,
	fees.ErrDiscountAboveBase,
	fees.ErrSameProviderTarget,
	fees.ErrFeeValueUnsupported,
	fees.ErrFeesExceedOutput,
	access.ErrZeroOwner,
}

var collaboratorErrors = []error{
	ledger.ErrTransferExceedsBalance,
	ledger.ErrTransferExceedsAllowance,
	ledger.ErrInsufficientNative,
	ledger.ErrInvalidAmount,
	ledger.ErrUnknownToken,
	ledger.ErrTokenExists,
	ledger.ErrNativeAllowance,
	ledger.ErrNoContract,
	router.ErrExpired,
	router.ErrInvalidPath,
	router.ErrInsufficientOutputAmount,
	router.ErrTransferFromFailed,
	router.ErrShortPayload,
	router.ErrUnknownMethod,
	router.ErrBadArguments,
	proxy.ErrNegativeRouterOutput,
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, proxy.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, proxy.ErrReentrantCall):
		return http.StatusConflict
	case proxy.IsAdmissibility(err), isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, collaboratorErrors):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
