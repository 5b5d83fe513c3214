package cofl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frikadellen/baf/internal/model"
)

// Message is the envelope of every frame on the mod socket. Data is usually a JSON document
// encoded once more as a string.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// unwrapData decodes data into v, unquoting string encoded payloads first.
func unwrapData(data json.RawMessage, v any) error {
	data = bytes.TrimSpace(data)
	for i := 0; i < 2 && len(data) > 0 && data[0] == '"'; i++ {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		inner = strings.TrimSpace(inner)
		if !json.Valid([]byte(inner)) {
			// Plain text payload, hand it over as a JSON string.
			quoted, _ := json.Marshal(inner)
			return json.Unmarshal(quoted, v)
		}
		data = json.RawMessage(inner)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(data, v)
}

type flipPayload struct {
	ItemName    string   `json:"itemName"`
	StartingBid int64    `json:"startingBid"`
	Target      int64    `json:"target"`
	Finder      string   `json:"finder"`
	ProfitPerc  *float64 `json:"profitPerc"`

	UUID         string `json:"uuid"`
	AuctionUUID  string `json:"auctionUuid"`
	AuctionUUID2 string `json:"auction_uuid"`
	AuctionID    string `json:"auctionId"`
	ID           string `json:"id"`
}

func (p flipPayload) toFlip() model.AuctionFlip {
	flip := model.AuctionFlip{
		UUID:        firstNonEmpty(p.UUID, p.AuctionUUID, p.AuctionUUID2, p.AuctionID, p.ID),
		ItemName:    p.ItemName,
		StartingBid: p.StartingBid,
		Target:      p.Target,
		Finder:      p.Finder,
	}
	if p.ProfitPerc != nil {
		flip.ProfitPerc = *p.ProfitPerc
	} else if p.StartingBid > 0 {
		flip.ProfitPerc = float64(p.Target-p.StartingBid) / float64(p.StartingBid) * 100
	}
	return flip
}

type bazaarPayload struct {
	ItemName string `json:"itemName"`
	Item     string `json:"item"`
	Name     string `json:"name"`
	ItemTag  string `json:"itemTag"`
	Amount   *int64 `json:"amount"`
	Count    *int64 `json:"count"`
	Quantity *int64 `json:"quantity"`

	PricePerUnit *decimal.Decimal `json:"pricePerUnit"`
	Price        *decimal.Decimal `json:"price"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	TotalPrice   *decimal.Decimal `json:"totalPrice"`

	IsBuyOrder *bool   `json:"isBuyOrder"`
	IsBuy      *bool   `json:"isBuy"`
	IsSell     *bool   `json:"isSell"`
	Type       *string `json:"type"`
	OrderType  *string `json:"orderType"`
}

func (p bazaarPayload) toOrder() model.BazaarOrder {
	order := model.BazaarOrder{
		ItemName: firstNonEmpty(p.ItemName, p.Item, p.Name),
		ItemTag:  p.ItemTag,
	}
	for _, amount := range []*int64{p.Amount, p.Count, p.Quantity} {
		if amount != nil {
			order.Amount = *amount
			break
		}
	}
	for _, price := range []*decimal.Decimal{p.PricePerUnit, p.UnitPrice, p.Price} {
		if price != nil {
			order.PricePerUnit = *price
			break
		}
	}
	if p.TotalPrice != nil {
		order.TotalPrice = *p.TotalPrice
	}
	order.IsBuyOrder = p.isBuyOrder()
	return order
}

// isBuyOrder resolves the order side from whichever field the feed sent. Orders without
// any side information are buy orders.
func (p bazaarPayload) isBuyOrder() bool {
	switch {
	case p.IsBuyOrder != nil:
		return *p.IsBuyOrder
	case p.IsBuy != nil:
		return *p.IsBuy
	case p.IsSell != nil:
		return !*p.IsSell
	case p.Type != nil:
		return strings.EqualFold(*p.Type, "buy")
	case p.OrderType != nil:
		return strings.EqualFold(*p.OrderType, "buy")
	}
	return true
}

type chatPayload struct {
	Text    string `json:"text"`
	OnClick string `json:"onClick"`
	Hover   string `json:"hover"`
}

// chatText accepts a single chat component, a list of components or a plain string.
func chatText(data json.RawMessage) (string, error) {
	var one chatPayload
	if err := unwrapData(data, &one); err == nil && one.Text != "" {
		return one.Text, nil
	}

	var many []chatPayload
	if err := unwrapData(data, &many); err == nil {
		var b strings.Builder
		for _, c := range many {
			b.WriteString(c.Text)
		}
		return b.String(), nil
	}

	var text string
	if err := unwrapData(data, &text); err != nil {
		return "", fmt.Errorf("unsupported chat payload: %w", err)
	}
	return text, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
