package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"enchanted diamond": "Enchanted Diamond",
		"FLAWED RUBY gem":   "Flawed Ruby Gem",
		"  booster  cookie": "Booster Cookie",
		"":                  "",
	}
	for in, want := range tests {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCoins(t *testing.T) {
	tests := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		1500000:    "1,500,000",
		-123456789: "-123,456,789",
	}
	for in, want := range tests {
		if got := FormatCoins(in); got != want {
			t.Errorf("FormatCoins(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestBazaarOrderSearchTerm(t *testing.T) {
	o := BazaarOrder{ItemName: "enchanted coal"}
	if got := o.SearchTerm(); got != "Enchanted Coal" {
		t.Errorf("expected title cased name, got %q", got)
	}
	o.ItemTag = "ENCHANTED_COAL"
	if got := o.SearchTerm(); got != "ENCHANTED_COAL" {
		t.Errorf("expected tag to win, got %q", got)
	}
}

func TestBazaarOrderTotal(t *testing.T) {
	o := BazaarOrder{Amount: 4, PricePerUnit: decimal.NewFromInt(265000)}
	if !o.Total().Equal(decimal.NewFromInt(1060000)) {
		t.Fatalf("unexpected total %s", o.Total())
	}
	o.TotalPrice = decimal.NewFromInt(1000000)
	if !o.Total().Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("quoted total should win, got %s", o.Total())
	}
}

func TestAuctionFlipPredicates(t *testing.T) {
	f := AuctionFlip{ItemName: "Wise Dragon Skin", StartingBid: 1_000_000, Target: 1_500_000}
	if f.Profit() != 500_000 {
		t.Errorf("unexpected profit %d", f.Profit())
	}
	if !f.IsSkin() {
		t.Errorf("expected skin")
	}
}
