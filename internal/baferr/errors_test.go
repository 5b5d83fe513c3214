package baferr

import (
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("click failed: %w", ErrTransport), "TransportFailure"},
		{fmt.Errorf("%w: purchase view", ErrWindowTimeout), "WindowTimeout"},
		{fmt.Errorf("%w: potato", ErrItemUnavailable), "ItemUnavailable"},
		{ErrPriceFailsafe, "PriceFailsafeViolation"},
		{ErrStaleRecommendation, "StaleRecommendation"},
		{fmt.Errorf("3 attempts: %w", ErrRetryExhausted), "RetryExhausted"},
		{fmt.Errorf("boom"), "Unknown"},
	}

	for _, tc := range tests {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(fmt.Errorf("%w: entered 200", ErrPriceFailsafe)) {
		t.Errorf("price failsafe violations should be retryable")
	}
	if Retryable(fmt.Errorf("%w: socket closed", ErrTransport)) {
		t.Errorf("transport failures should not be retried")
	}
	if Retryable(fmt.Errorf("%w: not in search results", ErrItemUnavailable)) {
		t.Errorf("unavailable items are abandoned, not retried")
	}
	if Retryable(ErrStaleRecommendation) {
		t.Errorf("stale recommendations should not be retried")
	}
}
