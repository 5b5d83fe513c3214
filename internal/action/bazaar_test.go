package action

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frikadellen/baf/internal/baferr"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/model"
	"github.com/frikadellen/baf/internal/packet"
	"github.com/frikadellen/baf/internal/state"
	"github.com/frikadellen/baf/internal/ui"
)

// bazaarServer scripts the bazaar menus. onConfirm answers each click on the order confirmation.
type bazaarServer struct {
	mu          sync.Mutex
	search      []ui.Item
	unitPrice   string
	onConfirm   func(g *fakeGame, windowID, attempt int)
	titles      map[int]string
	signs       []string
	confirms    int
	pendingSign string
}

func (s *bazaarServer) open(g *fakeGame, title string) int {
	id := g.open(title)
	s.mu.Lock()
	s.titles[id] = title
	s.mu.Unlock()
	return id
}

func (s *bazaarServer) title(id int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titles[id]
}

func (s *bazaarServer) react(g *fakeGame, f packet.Frame) {
	switch f.Type {
	case packet.TypeChat:
		if s.search != nil {
			id := s.open(g, "Bazaar ➜ \"Enchanted Coal\"")
			g.publish(game.WindowItems{ID: id, Items: s.search})
			return
		}
		s.openDetail(g)
	case packet.TypeWindowClick:
		c := decodeClick(f)
		kind := ui.ClassifyTitle(s.title(c.WindowID))
		switch {
		case kind == ui.KindBazaarSearch:
			s.openDetail(g)
		case kind == ui.KindItemDetail && c.Slot == 15:
			s.open(g, "How many do you want?")
		case kind == ui.KindItemDetail && c.Slot == 16:
			s.open(g, "At what price are you selling?")
		case kind == ui.KindOrderAmount:
			s.mu.Lock()
			s.pendingSign = "amount"
			s.mu.Unlock()
			g.publish(game.SignOpened{X: 1, Y: 2, Z: 3})
		case kind == ui.KindOrderPrice:
			s.mu.Lock()
			s.pendingSign = "price"
			s.mu.Unlock()
			g.publish(game.SignOpened{X: 1, Y: 2, Z: 3})
		case kind == ui.KindOrderConfirm && c.Slot == 13:
			s.mu.Lock()
			s.confirms++
			n := s.confirms
			s.mu.Unlock()
			s.onConfirm(g, c.WindowID, n)
		}
	case packet.TypeUpdateSign:
		var sign packet.UpdateSign
		_ = json.Unmarshal(f.Data, &sign)
		s.mu.Lock()
		s.signs = append(s.signs, sign.Lines[0])
		pending := s.pendingSign
		s.mu.Unlock()

		if pending == "amount" {
			s.open(g, "How much do you want to pay?")
			return
		}
		id := s.open(g, "Confirm Buy Order")
		g.publish(game.WindowItems{ID: id, Items: []ui.Item{{
			Slot:        13,
			Name:        "coal",
			DisplayName: "§aBuy Order",
			Lore:        []string{"§7Price per unit: §6" + s.unitPrice + " coins"},
		}}})
	}
}

func (s *bazaarServer) openDetail(g *fakeGame) {
	id := s.open(g, "Coal ➜ Enchanted Coal")
	g.publish(game.WindowItems{ID: id, Items: []ui.Item{
		{Slot: 15, Name: "map", DisplayName: "Create Buy Order"},
		{Slot: 16, Name: "map", DisplayName: "Create Sell Offer"},
	}})
}

func (s *bazaarServer) signLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.signs)
}

func acceptOrder(g *fakeGame, windowID, _ int) {
	g.publish(game.ChatReceived{Text: "§6[Bazaar] §7Buy Order Setup! §a64§7x Enchanted Coal"})
	g.publish(game.WindowClosed{ID: windowID})
}

func testOrder() model.BazaarOrder {
	return model.BazaarOrder{
		ItemName:     "Enchanted Coal",
		ItemTag:      "ENCHANTED_COAL",
		Amount:       64,
		PricePerUnit: decimal.NewFromInt(100),
		IsBuyOrder:   true,
		CreatedAt:    time.Now(),
	}
}

func newBazaarServer(unitPrice string, onConfirm func(g *fakeGame, windowID, attempt int)) *bazaarServer {
	return &bazaarServer{unitPrice: unitPrice, onConfirm: onConfirm, titles: map[int]string{}}
}

func confirmClicks(g *fakeGame) int {
	n := 0
	for _, c := range g.clicks() {
		if c.Slot == 13 {
			n++
		}
	}
	return n
}

func TestPlaceBazaarOrderFailsafeRejectsAndRetries(t *testing.T) {
	server := newBazaarServer("200.0", acceptOrder)
	g := newFakeGame(t, testConfig(), server.react)

	err := PlaceBazaarOrder(context.Background(), g.ctx, testOrder())
	if !errors.Is(err, baferr.ErrRetryExhausted) || !errors.Is(err, baferr.ErrPriceFailsafe) {
		t.Fatalf("expected exhausted failsafe retries, got %v", err)
	}
	if n := confirmClicks(g); n != 0 {
		t.Fatalf("order must never be confirmed, got %d confirm clicks", n)
	}
	if got := len(g.chats()); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if got := g.ctx.State.Get(); got != state.Idle {
		t.Fatalf("expected Idle, got %s", got)
	}

	failed, ok := g.nextEvent(t).(event.BazaarOrderFailedEvent)
	if !ok || failed.Attempts != 3 {
		t.Fatalf("expected failure after 3 attempts, got %+v", failed)
	}
}

func TestPlaceBazaarOrderThroughSearch(t *testing.T) {
	server := newBazaarServer("100.0", acceptOrder)
	server.search = []ui.Item{
		{Slot: 11, Name: "coal_block", DisplayName: "§aEnchanted Coal Block"},
		{Slot: 12, Name: "coal", DisplayName: "§aEnchanted Coal"},
	}
	g := newFakeGame(t, testConfig(), server.react)

	order := testOrder()
	order.ItemTag = ""
	order.ItemName = "enchanted coal"

	if err := PlaceBazaarOrder(context.Background(), g.ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := g.chats(); !slices.Equal(got, []string{"/bz Enchanted Coal"}) {
		t.Fatalf("unexpected search command: %v", got)
	}
	clicks := g.clicks()
	if len(clicks) == 0 || clicks[0].Slot != 12 {
		t.Fatalf("expected the exact search result to be clicked first, got %+v", clicks)
	}
	if got := server.signLines(); !slices.Equal(got, []string{"64", "100.0"}) {
		t.Fatalf("unexpected sign values: %v", got)
	}
	if n := confirmClicks(g); n != 1 {
		t.Fatalf("expected one confirm click, got %d", n)
	}

	placed, ok := g.nextEvent(t).(event.BazaarOrderPlacedEvent)
	if !ok || placed.Attempts != 1 {
		t.Fatalf("expected placement on first attempt, got %+v", placed)
	}
}

func TestPlaceBazaarOrderRetriesRejectedSellOffer(t *testing.T) {
	server := newBazaarServer("100.0", func(g *fakeGame, windowID, attempt int) {
		if attempt == 1 {
			g.publish(game.ChatReceived{Text: "§cYou reached the maximum orders for this item!"})
			return
		}
		g.publish(game.ChatReceived{Text: "§6[Bazaar] §7Sell Offer Setup! §a64§7x Enchanted Coal"})
		g.publish(game.WindowClosed{ID: windowID})
	})
	g := newFakeGame(t, testConfig(), server.react)

	order := testOrder()
	order.IsBuyOrder = false

	if err := PlaceBazaarOrder(context.Background(), g.ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, line := range server.signLines() {
		if line == "64" {
			t.Fatalf("sell offers must not enter an amount, signs: %v", server.signLines())
		}
	}
	for _, c := range g.clicks() {
		if c.Slot == 15 {
			t.Fatalf("sell offer clicked the buy order button: %+v", c)
		}
	}

	placed, ok := g.nextEvent(t).(event.BazaarOrderPlacedEvent)
	if !ok || placed.Attempts != 2 {
		t.Fatalf("expected placement on second attempt, got %+v", placed)
	}
}

func TestPlaceBazaarOrderStale(t *testing.T) {
	g := newFakeGame(t, testConfig(), nil)

	order := testOrder()
	order.CreatedAt = time.Now().Add(-61 * time.Second)

	err := PlaceBazaarOrder(context.Background(), g.ctx, order)
	if !errors.Is(err, baferr.ErrStaleRecommendation) {
		t.Fatalf("expected stale recommendation, got %v", err)
	}
	if len(g.chats()) != 0 || len(g.clicks()) != 0 {
		t.Fatalf("no action may be sent for a stale order")
	}
}

func TestPlaceBazaarOrderInterrupted(t *testing.T) {
	g := newFakeGame(t, testConfig(), nil)

	c, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := PlaceBazaarOrder(c, g.ctx, testOrder())
	if !errors.Is(err, baferr.ErrInterrupted) {
		t.Fatalf("expected interruption, got %v", err)
	}
	if got := g.ctx.State.Get(); got != state.Idle {
		t.Fatalf("expected Idle, got %s", got)
	}
}

func TestNextAttempt(t *testing.T) {
	timeout := baferr.ErrWindowTimeout

	tests := []struct {
		name    string
		attempt int
		outcome error
		step    attemptStep
		next    int
		wantErr error
	}{
		{"Success", 1, nil, attemptDone, 1, nil},
		{"Retry", 1, timeout, attemptRetry, 2, nil},
		{"LastRetry", 2, baferr.ErrPriceFailsafe, attemptRetry, 3, nil},
		{"Exhausted", 3, timeout, attemptFailed, 3, baferr.ErrRetryExhausted},
		{"NotRetryable", 1, baferr.ErrItemUnavailable, attemptFailed, 1, baferr.ErrItemUnavailable},
		{"Transport", 1, baferr.ErrTransport, attemptFailed, 1, baferr.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := nextAttempt(tt.attempt, 3, tt.outcome)
			if d.step != tt.step || d.attempt != tt.next {
				t.Fatalf("nextAttempt() = %+v, want step %d attempt %d", d, tt.step, tt.next)
			}
			if tt.wantErr == nil && d.err != nil {
				t.Fatalf("unexpected error %v", d.err)
			}
			if tt.wantErr != nil && !errors.Is(d.err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, d.err)
			}
		})
	}
}

func TestIsOrderSetup(t *testing.T) {
	if !isOrderSetup("§6[Bazaar] §7Buy Order Setup! §a64§7x Enchanted Coal") {
		t.Fatalf("expected buy order setup to be detected")
	}
	if isOrderSetup("§6[Bazaar] §7Claimed 64x Enchanted Coal") {
		t.Fatalf("claim message is not an order setup")
	}
	if strings.Contains(ui.StripColors("§cerror"), "§") {
		t.Fatalf("colours must be stripped")
	}
}

func TestPlaceBazaarOrderInterruptAfterConfirmFinishes(t *testing.T) {
	c, cancel := context.WithCancel(context.Background())
	defer cancel()
	server := newBazaarServer("100.0", func(g *fakeGame, windowID, attempt int) {
		cancel()
		acceptOrder(g, windowID, attempt)
	})
	g := newFakeGame(t, testConfig(), server.react)

	if err := PlaceBazaarOrder(c, g.ctx, testOrder()); err != nil {
		t.Fatalf("a confirmed order must finish, got %v", err)
	}
	if n := confirmClicks(g); n != 1 {
		t.Fatalf("expected one confirm click, got %d", n)
	}
	if _, ok := g.nextEvent(t).(event.BazaarOrderPlacedEvent); !ok {
		t.Fatalf("expected a placed event")
	}
}

func TestPlaceBazaarOrderInterruptAfterConfirmIsNotRetried(t *testing.T) {
	c, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The confirmation never answers, so the attempt ends in a window timeout.
	server := newBazaarServer("100.0", func(*fakeGame, int, int) { cancel() })
	g := newFakeGame(t, testConfig(), server.react)

	err := PlaceBazaarOrder(c, g.ctx, testOrder())
	if err == nil || errors.Is(err, baferr.ErrInterrupted) {
		t.Fatalf("expected a failure that is not an interruption, got %v", err)
	}
	if !errors.Is(err, baferr.ErrWindowTimeout) {
		t.Fatalf("expected the window timeout to be reported, got %v", err)
	}
	if n := confirmClicks(g); n != 1 {
		t.Fatalf("expected one confirm click, got %d", n)
	}
	if got := len(g.chats()); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
	if _, ok := g.nextEvent(t).(event.BazaarOrderFailedEvent); !ok {
		t.Fatalf("expected a failure event")
	}
}
