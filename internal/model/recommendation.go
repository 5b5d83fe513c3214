package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UserFinder is the finder tag attached to flips a user requested manually.
const UserFinder = "USER"

// AuctionFlip is a buy-it-now auction recommended for purchase and resale.
type AuctionFlip struct {
	UUID        string    `json:"uuid"`
	ItemName    string    `json:"itemName"`
	StartingBid int64     `json:"startingBid"`
	Target      int64     `json:"target"`
	Finder      string    `json:"finder,omitempty"`
	ProfitPerc  float64   `json:"profitPerc,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (f AuctionFlip) Profit() int64 {
	return f.Target - f.StartingBid
}

func (f AuctionFlip) IsSkin() bool {
	return strings.Contains(strings.ToLower(f.ItemName), "skin")
}

func (f AuctionFlip) String() string {
	return fmt.Sprintf("%s (%s) bid=%d target=%d", f.ItemName, f.UUID, f.StartingBid, f.Target)
}

// BazaarOrder is a standing buy order or sell offer recommended for the bazaar.
type BazaarOrder struct {
	ItemName     string          `json:"itemName"`
	ItemTag      string          `json:"itemTag,omitempty"`
	Amount       int64           `json:"amount"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	IsBuyOrder   bool            `json:"isBuyOrder"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (o BazaarOrder) IsSell() bool {
	return !o.IsBuyOrder
}

func (o BazaarOrder) Side() string {
	if o.IsBuyOrder {
		return "BUY"
	}
	return "SELL"
}

// Total returns the quoted total price, falling back to amount times unit price.
func (o BazaarOrder) Total() decimal.Decimal {
	if !o.TotalPrice.IsZero() {
		return o.TotalPrice
	}
	return o.PricePerUnit.Mul(decimal.NewFromInt(o.Amount))
}

// SearchTerm is the argument used for the /bz command. Tags open the item page directly.
func (o BazaarOrder) SearchTerm() string {
	if o.ItemTag != "" {
		return o.ItemTag
	}
	return TitleCase(o.ItemName)
}

func (o BazaarOrder) String() string {
	return fmt.Sprintf("%s %dx %s @ %s", o.Side(), o.Amount, o.ItemName, o.PricePerUnit.String())
}

// TitleCase upper-cases the first letter of every space separated word and lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// FormatCoins renders a coin amount with thousands separators.
func FormatCoins(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String()
}
