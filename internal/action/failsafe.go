package action

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frikadellen/baf/internal/baferr"
	"github.com/frikadellen/baf/internal/model"
	"github.com/frikadellen/baf/internal/ui"
)

var unitPricePattern = regexp.MustCompile(`(?i)price per unit:?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// PriceBounds returns the accepted range of unit prices for an order. A buy order may cost at
// most recommended/buyThreshold, a sell offer must ask at least recommended/sellThreshold.
func PriceBounds(order model.BazaarOrder, buyThreshold, sellThreshold decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if order.IsBuyOrder {
		return decimal.Zero, order.PricePerUnit.Div(buyThreshold)
	}
	return order.PricePerUnit.Div(sellThreshold), decimal.Zero
}

// CheckPriceFailsafe rejects an entered unit price that drifted too far from the recommendation.
func CheckPriceFailsafe(order model.BazaarOrder, entered, buyThreshold, sellThreshold decimal.Decimal) error {
	low, high := PriceBounds(order, buyThreshold, sellThreshold)

	if order.IsBuyOrder && entered.GreaterThan(high) {
		return fmt.Errorf("%w: buy price %s exceeds %s (recommended %s)",
			baferr.ErrPriceFailsafe, entered.StringFixed(1), high.StringFixed(1), order.PricePerUnit.StringFixed(1))
	}
	if !order.IsBuyOrder && entered.LessThan(low) {
		return fmt.Errorf("%w: sell price %s below %s (recommended %s)",
			baferr.ErrPriceFailsafe, entered.StringFixed(1), low.StringFixed(1), order.PricePerUnit.StringFixed(1))
	}

	return nil
}

// enteredUnitPrice reads the unit price the server will use from the order summary item.
func enteredUnitPrice(items []ui.Item) (decimal.Decimal, bool) {
	for _, it := range items {
		for _, line := range append([]string{it.DisplayName}, it.Lore...) {
			m := unitPricePattern.FindStringSubmatch(ui.StripColors(line))
			if m == nil {
				continue
			}
			price, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
			if err == nil {
				return price, true
			}
		}
	}
	return decimal.Zero, false
}
