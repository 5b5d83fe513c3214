package action

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/frikadellen/baf/internal/baferr"
	"github.com/frikadellen/baf/internal/config"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/model"
	"github.com/frikadellen/baf/internal/packet"
	"github.com/frikadellen/baf/internal/state"
	"github.com/frikadellen/baf/internal/ui"
)

func testFlip() model.AuctionFlip {
	return model.AuctionFlip{
		UUID:        "abc",
		ItemName:    "Hyperion",
		StartingBid: 1_000_000,
		Target:      1_500_000,
		Finder:      "SNIPER",
		ProfitPerc:  50,
	}
}

func purchaseItems(id int, name string) game.WindowItems {
	return game.WindowItems{ID: id, Items: []ui.Item{
		{Slot: 13, Name: "diamond_sword", DisplayName: "Hyperion"},
		{Slot: 31, Name: name},
	}}
}

// auctionServer answers the purchase protocol. closeAfter is how many confirm clicks the
// confirmation window needs before it closes.
func auctionServer(slotItem string, closeAfter int) func(g *fakeGame, f packet.Frame) {
	confirmClicks := 0
	return func(g *fakeGame, f packet.Frame) {
		switch f.Type {
		case packet.TypeChat:
			id := g.open("{\"text\":\"BIN Auction View\"}")
			g.publish(purchaseItems(id, slotItem))
		case packet.TypeWindowClick:
			c := decodeClick(f)
			switch c.Slot {
			case 31:
				g.open("Confirm Purchase")
			case 11:
				confirmClicks++
				if confirmClicks >= closeAfter {
					g.publish(game.WindowClosed{ID: c.WindowID})
				}
			}
		}
	}
}

func TestBuyAuctionPurchasesFlip(t *testing.T) {
	g := newFakeGame(t, testConfig(), auctionServer("gold_nugget", 1))

	if err := BuyAuction(context.Background(), g.ctx, testFlip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := g.chats(); !slices.Equal(got, []string{"/viewauction abc"}) {
		t.Fatalf("unexpected chat commands: %v", got)
	}

	clicks := g.clicks()
	if len(clicks) != 2 {
		t.Fatalf("expected 2 clicks, got %d: %+v", len(clicks), clicks)
	}
	if clicks[0].WindowID != 1 || clicks[0].Slot != 31 || clicks[0].ItemID != goldNuggetItemID || clicks[0].ActionNumber != 0 {
		t.Errorf("unexpected purchase click: %+v", clicks[0])
	}
	if clicks[1].WindowID != 2 || clicks[1].Slot != 11 || clicks[1].ItemID != confirmPaneItemID || clicks[1].ActionNumber != 0 {
		t.Errorf("unexpected confirm click: %+v", clicks[1])
	}

	if got := g.ctx.State.Get(); got != state.Idle {
		t.Fatalf("expected Idle, got %s", got)
	}
	if _, ok := g.nextEvent(t).(event.FlipPurchasedEvent); !ok {
		t.Fatalf("expected a purchase event")
	}
}

func TestBuyAuctionSkipPreClicksConfirm(t *testing.T) {
	cfg := testConfig()
	cfg.Flips.Skip.Always = true

	g := newFakeGame(t, cfg, nil)
	g.react = func(g *fakeGame, f packet.Frame) {
		switch f.Type {
		case packet.TypeChat:
			id := g.open("BIN Auction View")
			g.publish(purchaseItems(id, "gold_nugget"))
		case packet.TypeWindowClick:
			// The server only opens the confirmation after the pre-click already went out.
			if c := decodeClick(f); c.Slot == 11 {
				id := g.open("Confirm Purchase")
				g.publish(game.WindowClosed{ID: id})
			}
		}
	}

	if err := BuyAuction(context.Background(), g.ctx, testFlip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clicks := g.clicks()
	if len(clicks) != 2 {
		t.Fatalf("expected 2 clicks, got %d: %+v", len(clicks), clicks)
	}
	confirm := clicks[1]
	if confirm.WindowID != game.NextWindowID(1) || confirm.Slot != 11 || confirm.ActionNumber != 0 {
		t.Fatalf("unexpected pre-click: %+v", confirm)
	}

	g.mu.Lock()
	journal := slices.Clone(g.journal)
	g.mu.Unlock()
	clickAt, openAt := -1, -1
	sends := 0
	for i, entry := range journal {
		if entry == "send:"+packet.TypeWindowClick {
			sends++
			if sends == 2 {
				clickAt = i
			}
		}
		if entry == "event:window_open" {
			openAt = i
		}
	}
	if clickAt < 0 || openAt < 0 || clickAt > openAt {
		t.Fatalf("confirm click must precede the confirmation window: %v", journal)
	}

	e, ok := g.nextEvent(t).(event.FlipPurchasedEvent)
	if !ok || e.SkipReason != "ALWAYS" {
		t.Fatalf("expected purchase with skip reason ALWAYS, got %+v", e)
	}
}

func TestBuyAuctionActionCounterIncrements(t *testing.T) {
	g := newFakeGame(t, testConfig(), auctionServer("gold_nugget", 2))

	if err := BuyAuction(context.Background(), g.ctx, testFlip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clicks := g.clicks()
	if len(clicks) != 3 {
		t.Fatalf("expected 3 clicks, got %d: %+v", len(clicks), clicks)
	}
	if clicks[0].ActionNumber != 0 {
		t.Errorf("purchase window must start at 0, got %d", clicks[0].ActionNumber)
	}
	if clicks[1].ActionNumber != 0 || clicks[2].ActionNumber != 1 {
		t.Errorf("confirm window actions must be 0 then 1, got %d then %d", clicks[1].ActionNumber, clicks[2].ActionNumber)
	}
}

func TestBuyAuctionSkipAfterConfirmationOpened(t *testing.T) {
	cfg := testConfig()
	cfg.Flips.Skip.Always = true
	// The server opens the confirmation as soon as slot 31 is clicked, before the pre-click.
	g := newFakeGame(t, cfg, auctionServer("gold_nugget", 2))

	if err := BuyAuction(context.Background(), g.ctx, testFlip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clicks := g.clicks()
	if len(clicks) != 3 {
		t.Fatalf("expected 3 clicks, got %d: %+v", len(clicks), clicks)
	}
	for i, want := range []struct{ window, slot, action int }{{1, 31, 0}, {2, 11, 0}, {2, 11, 1}} {
		c := clicks[i]
		if c.WindowID != want.window || c.Slot != want.slot || c.ActionNumber != want.action {
			t.Errorf("click %d: want window=%d slot=%d action=%d, got %+v", i, want.window, want.slot, want.action, c)
		}
	}
}

func TestBuyAuctionWindowNeverOpens(t *testing.T) {
	g := newFakeGame(t, testConfig(), nil)

	err := BuyAuction(context.Background(), g.ctx, testFlip())
	if !errors.Is(err, baferr.ErrWindowTimeout) {
		t.Fatalf("expected window timeout, got %v", err)
	}
	if clicks := g.clicks(); len(clicks) != 0 {
		t.Fatalf("expected no clicks, got %+v", clicks)
	}
	if got := g.ctx.State.Get(); got != state.Idle {
		t.Fatalf("expected Idle, got %s", got)
	}

	failed, ok := g.nextEvent(t).(event.FlipFailedEvent)
	if !ok || failed.Reason != "window never opened" {
		t.Fatalf("expected window never opened failure, got %+v", failed)
	}
}

func TestBuyAuctionPurchaseSlotNeverLoads(t *testing.T) {
	g := newFakeGame(t, testConfig(), func(g *fakeGame, f packet.Frame) {
		if f.Type == packet.TypeChat {
			g.open("BIN Auction View")
		}
	})

	err := BuyAuction(context.Background(), g.ctx, testFlip())
	if !errors.Is(err, baferr.ErrItemUnavailable) || !errors.Is(err, baferr.ErrWindowTimeout) {
		t.Fatalf("expected item unavailable caused by a window timeout, got %v", err)
	}
	failed, ok := g.nextEvent(t).(event.FlipFailedEvent)
	if !ok || !strings.HasPrefix(failed.Reason, "purchase slot never loaded") {
		t.Fatalf("unexpected failure %+v", failed)
	}
}

func TestBuyAuctionItemUnavailable(t *testing.T) {
	for _, item := range []string{"potato", "poisonous_potato", "stained_glass_pane"} {
		t.Run(item, func(t *testing.T) {
			g := newFakeGame(t, testConfig(), auctionServer(item, 1))

			err := BuyAuction(context.Background(), g.ctx, testFlip())
			if !errors.Is(err, baferr.ErrItemUnavailable) {
				t.Fatalf("expected item unavailable, got %v", err)
			}
			for _, c := range g.clicks() {
				if c.Slot == 31 || c.Slot == 11 {
					t.Fatalf("no purchase click expected, got %+v", c)
				}
			}
			if got := g.ctx.State.Get(); got != state.Idle {
				t.Fatalf("expected Idle, got %s", got)
			}
		})
	}
}

func TestBuyAuctionClaimsSoldAuction(t *testing.T) {
	g := newFakeGame(t, testConfig(), auctionServer("gold_block", 1))
	var states []state.BotState
	g.ctx.State.OnChange(func(c state.Change) { states = append(states, c.To) })

	if err := BuyAuction(context.Background(), g.ctx, testFlip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clicks := g.clicks()
	if len(clicks) != 1 || clicks[0].ItemID != goldBlockItemID {
		t.Fatalf("expected a single claim click, got %+v", clicks)
	}
	if _, ok := g.nextEvent(t).(event.AuctionClaimedEvent); !ok {
		t.Fatalf("expected a claim event")
	}
	want := []state.BotState{state.Purchasing, state.Idle, state.Claiming, state.Idle}
	if !slices.Equal(states, want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
}

func TestBuyAuctionWaitsForFeather(t *testing.T) {
	g := newFakeGame(t, testConfig(), nil)
	server := auctionServer("feather", 1)
	g.react = func(g *fakeGame, f packet.Frame) {
		server(g, f)
		if f.Type == packet.TypeChat {
			go func() {
				time.Sleep(50 * time.Millisecond)
				g.publish(game.SlotUpdate{ID: 1, Item: ui.Item{Slot: 31, Name: "gold_nugget"}})
			}()
		}
	}

	if err := BuyAuction(context.Background(), g.ctx, testFlip()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clicks := g.clicks(); len(clicks) != 2 || clicks[0].Slot != 31 {
		t.Fatalf("expected purchase after the feather changed, got %+v", clicks)
	}
}

func TestSkipReason(t *testing.T) {
	skip := config.SkipCfg{MinProfit: 1_000_000, ProfitPercentage: 50, MinPrice: 10_000_000, UserFinder: true, Skins: true}

	tests := []struct {
		name string
		skip config.SkipCfg
		flip model.AuctionFlip
		want string
	}{
		{"Always", config.SkipCfg{Always: true}, model.AuctionFlip{}, "ALWAYS"},
		{"MinProfit", skip, model.AuctionFlip{StartingBid: 1_000_000, Target: 2_500_000}, "MIN_PROFIT (1500000 >= 1000000)"},
		{"UserFinder", skip, model.AuctionFlip{StartingBid: 100, Target: 120, Finder: model.UserFinder}, "USER_FINDER"},
		{"Skins", skip, model.AuctionFlip{ItemName: "Dragon Skin", StartingBid: 100, Target: 120}, "SKINS"},
		{"ProfitPercentage", skip, model.AuctionFlip{StartingBid: 100, Target: 200, ProfitPerc: 75}, "PROFIT_PERCENTAGE (75.0 >= 50.0)"},
		{"MinPrice", skip, model.AuctionFlip{StartingBid: 20_000_000, Target: 20_100_000}, "MIN_PRICE (20000000 >= 10000000)"},
		{"None", skip, model.AuctionFlip{ItemName: "Aspect of the End", StartingBid: 100, Target: 120, ProfitPerc: 20}, ""},
		{"Disabled", config.SkipCfg{MinProfit: -1, ProfitPercentage: -1, MinPrice: -1}, model.AuctionFlip{StartingBid: 20_000_000, Target: 40_000_000, ProfitPerc: 100}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SkipReason(tt.skip, tt.flip); got != tt.want {
				t.Fatalf("SkipReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
