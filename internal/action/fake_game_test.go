package action

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/frikadellen/baf/internal/config"
	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/packet"
	"github.com/frikadellen/baf/internal/state"
)

// fakeGame plays the server side of the game connection. Each outbound packet is decoded and
// handed to react, which answers by publishing events.
type fakeGame struct {
	mu      sync.Mutex
	ctx     *botCtx.Context
	frames  []packet.Frame
	journal []string
	nextID  int
	react   func(g *fakeGame, f packet.Frame)
	events  chan event.Event
}

func newFakeGame(t *testing.T, cfg *config.BafCfg, react func(g *fakeGame, f packet.Frame)) *fakeGame {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	listener := event.NewListener(logger)
	g := &fakeGame{react: react, events: make(chan event.Event, 32)}
	listener.Register(func(_ context.Context, e event.Event) error {
		g.events <- e
		return nil
	})
	go listener.Listen(t.Context())

	g.ctx = botCtx.NewContext("tester", cfg, logger, g, listener)
	if err := g.ctx.State.Transition(state.Idle, "spawned"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func testConfig() *config.BafCfg {
	cfg := config.Default()
	cfg.Flips.WindowTimeoutMs = 300
	cfg.Flips.ActionDelayMs = 20
	cfg.Flips.Skip = config.SkipCfg{MinProfit: -1, ProfitPercentage: -1, MinPrice: -1}
	cfg.Bazaar.RetryDelayMs = 10
	return cfg
}

func (g *fakeGame) SendPacket(payload []byte) error {
	f, err := packet.Decode(payload)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.frames = append(g.frames, f)
	g.journal = append(g.journal, "send:"+f.Type)
	react := g.react
	g.mu.Unlock()

	if react != nil {
		react(g, f)
	}
	return nil
}

func (g *fakeGame) publish(e game.Event) {
	g.mu.Lock()
	g.journal = append(g.journal, "event:"+game.Name(e))
	g.mu.Unlock()
	g.ctx.Stream.Publish(e)
}

// open publishes a window with the next server window id and returns that id.
func (g *fakeGame) open(title string) int {
	g.mu.Lock()
	g.nextID = game.NextWindowID(g.nextID)
	id := g.nextID
	g.mu.Unlock()
	g.publish(game.WindowOpened{ID: id, Type: "minecraft:chest", Title: title})
	return id
}

func (g *fakeGame) clicks() []packet.ClickSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []packet.ClickSlot
	for _, f := range g.frames {
		if f.Type != packet.TypeWindowClick {
			continue
		}
		var c packet.ClickSlot
		_ = json.Unmarshal(f.Data, &c)
		out = append(out, c)
	}
	return out
}

func (g *fakeGame) chats() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, f := range g.frames {
		if f.Type != packet.TypeChat {
			continue
		}
		var c packet.ChatCommand
		_ = json.Unmarshal(f.Data, &c)
		out = append(out, c.Message)
	}
	return out
}

func (g *fakeGame) nextEvent(t *testing.T) event.Event {
	t.Helper()
	select {
	case e := <-g.events:
		return e
	case <-time.After(time.Second):
		t.Fatalf("no event reported")
		return nil
	}
}

func decodeClick(f packet.Frame) packet.ClickSlot {
	var c packet.ClickSlot
	_ = json.Unmarshal(f.Data, &c)
	return c
}
