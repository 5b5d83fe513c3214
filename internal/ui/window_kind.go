package ui

import (
	"encoding/json"
	"strings"
)

type WindowKind int

const (
	KindUnknown WindowKind = iota
	KindPurchaseView
	KindConfirmPurchase
	KindAuctionView
	KindBazaarSearch
	KindItemDetail
	KindOrderAmount
	KindOrderPrice
	KindOrderConfirm
	KindManageOrders
)

func (k WindowKind) String() string {
	switch k {
	case KindPurchaseView:
		return "PurchaseView"
	case KindConfirmPurchase:
		return "ConfirmPurchase"
	case KindAuctionView:
		return "AuctionView"
	case KindBazaarSearch:
		return "BazaarSearch"
	case KindItemDetail:
		return "ItemDetail"
	case KindOrderAmount:
		return "OrderAmount"
	case KindOrderPrice:
		return "OrderPrice"
	case KindOrderConfirm:
		return "OrderConfirm"
	case KindManageOrders:
		return "ManageOrders"
	}
	return "Unknown"
}

const breadcrumb = "➜"

// ClassifyTitle maps a raw window title, plain or rich-text JSON, to a window kind.
func ClassifyTitle(raw string) WindowKind {
	title := ParseTitle(raw)

	switch {
	case strings.Contains(title, "BIN Auction View"):
		return KindPurchaseView
	case strings.Contains(title, "Confirm Purchase"):
		return KindConfirmPurchase
	case strings.Contains(title, "Auction View"):
		return KindAuctionView
	case strings.Contains(title, "Confirm Buy Order"), strings.Contains(title, "Confirm Sell Offer"):
		return KindOrderConfirm
	case strings.HasPrefix(title, "How many"):
		return KindOrderAmount
	case strings.HasPrefix(title, "How much"), strings.HasPrefix(title, "At what price"):
		return KindOrderPrice
	case strings.Contains(title, "Manage") && strings.Contains(title, "Orders"):
		return KindManageOrders
	case strings.HasPrefix(title, "Bazaar"):
		return KindBazaarSearch
	case strings.Contains(title, breadcrumb):
		return KindItemDetail
	}

	return KindUnknown
}

type textComponent struct {
	Text  string            `json:"text"`
	Extra []json.RawMessage `json:"extra"`
}

// ParseTitle flattens a rich-text title by concatenating its text fragments depth first.
// Titles that are not JSON are returned with colour codes removed.
func ParseTitle(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "\"") && !strings.HasPrefix(trimmed, "[") {
		return StripColors(raw)
	}

	var b strings.Builder
	if !appendFragments(&b, json.RawMessage(trimmed)) {
		return StripColors(raw)
	}

	return StripColors(b.String())
}

func appendFragments(b *strings.Builder, msg json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		b.WriteString(s)
		return true
	}

	var list []json.RawMessage
	if err := json.Unmarshal(msg, &list); err == nil {
		for _, m := range list {
			if !appendFragments(b, m) {
				return false
			}
		}
		return true
	}

	var c textComponent
	if err := json.Unmarshal(msg, &c); err != nil {
		return false
	}
	b.WriteString(c.Text)
	for _, m := range c.Extra {
		if !appendFragments(b, m) {
			return false
		}
	}

	return true
}
