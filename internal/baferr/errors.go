package baferr

import (
	"errors"
)

var (
	ErrTransport           = errors.New("transport failure")
	ErrWindowTimeout       = errors.New("window timeout")
	ErrItemUnavailable     = errors.New("item unavailable")
	ErrPriceFailsafe       = errors.New("price failsafe violation")
	ErrStaleRecommendation = errors.New("stale recommendation")
	ErrRetryExhausted      = errors.New("retry exhausted")
	ErrInterrupted         = errors.New("interrupted by higher priority command")
	ErrOrderRejected       = errors.New("order rejected")
)

// Kind maps an error to a short label used in logs and notifications.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrTransport):
		return "TransportFailure"
	case errors.Is(err, ErrWindowTimeout):
		return "WindowTimeout"
	case errors.Is(err, ErrItemUnavailable):
		return "ItemUnavailable"
	case errors.Is(err, ErrPriceFailsafe):
		return "PriceFailsafeViolation"
	case errors.Is(err, ErrStaleRecommendation):
		return "StaleRecommendation"
	case errors.Is(err, ErrRetryExhausted):
		return "RetryExhausted"
	case errors.Is(err, ErrInterrupted):
		return "Interrupted"
	case errors.Is(err, ErrOrderRejected):
		return "OrderRejected"
	}

	return "Unknown"
}

// Retryable reports whether a bazaar attempt that failed with err may be retried.
func Retryable(err error) bool {
	return errors.Is(err, ErrWindowTimeout) ||
		errors.Is(err, ErrPriceFailsafe) ||
		errors.Is(err, ErrOrderRejected)
}
