package ui

import "testing"

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  WindowKind
	}{
		{"BIN Auction View", KindPurchaseView},
		{`{"italic":false,"extra":[{"text":"BIN Auction View"}],"text":""}`, KindPurchaseView},
		{`{"text":"","extra":[{"text":"Confirm "},{"text":"Purchase","extra":["!"]}]}`, KindConfirmPurchase},
		{"Auction View", KindAuctionView},
		{"§8Confirm Buy Order", KindOrderConfirm},
		{"Confirm Sell Offer", KindOrderConfirm},
		{"How many do you want?", KindOrderAmount},
		{"How much do you want to pay?", KindOrderPrice},
		{"At what price are you selling?", KindOrderPrice},
		{"Your Bazaar Orders", KindUnknown},
		{"Manage Orders", KindManageOrders},
		{`Bazaar ➜ "coal"`, KindBazaarSearch},
		{"Mining ➜ Enchanted Coal", KindItemDetail},
		{"Chest", KindUnknown},
		{`{"text":`, KindUnknown},
	}

	for _, tc := range tests {
		if got := ClassifyTitle(tc.title); got != tc.want {
			t.Errorf("ClassifyTitle(%q) = %s, want %s", tc.title, got, tc.want)
		}
	}
}

func TestParseTitle(t *testing.T) {
	tests := map[string]string{
		`{"italic":false,"extra":[{"text":"BIN Auction View"}],"text":""}`: "BIN Auction View",
		`{"text":"§6Bazaar ","extra":[{"text":"➜ "},"Farming"]}`:           "Bazaar ➜ Farming",
		`"Confirm Purchase"`:     "Confirm Purchase",
		"§aGreen§r Text":         "Green Text",
		`{"broken json`:          `{"broken json`,
		`[{"text":"a"},"b","c"]`: "abc",
	}
	for in, want := range tests {
		if got := ParseTitle(in); got != want {
			t.Errorf("ParseTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlot(t *testing.T) {
	tests := []struct {
		kind WindowKind
		role Role
		want int
		ok   bool
	}{
		{KindPurchaseView, RolePurchase, 31, true},
		{KindConfirmPurchase, RoleConfirm, 11, true},
		{KindOrderConfirm, RoleConfirm, 13, true},
		{KindItemDetail, RoleCreateBuyOrder, 15, true},
		{KindItemDetail, RoleCreateSellOffer, 16, true},
		{KindOrderAmount, RoleCustomAmount, 16, true},
		{KindOrderPrice, RoleCustomPrice, 16, true},
		{KindUnknown, RoleClose, 49, true},
		{KindConfirmPurchase, RoleAltClose, 50, true},
		{KindConfirmPurchase, RolePurchase, 0, false},
	}

	for _, tc := range tests {
		got, ok := Slot(tc.kind, tc.role)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Slot(%s, %s) = %d,%v want %d,%v", tc.kind, tc.role, got, ok, tc.want, tc.ok)
		}
	}
}
