package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frikadellen/baf/internal/packet"
	"github.com/frikadellen/baf/internal/ui"
	"github.com/gorilla/websocket"
)

const bridgeEventBuffer = 256

var errNotConnected = errors.New("bridge connection not established")

// BridgeConfig configures the connection to the local game bridge.
type BridgeConfig struct {
	URL            string
	Reconnect      bool
	ReconnectDelay time.Duration
	ReconnectMax   int
}

func (c BridgeConfig) normalize() BridgeConfig {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	if c.ReconnectMax < 0 {
		c.ReconnectMax = 0
	}
	return c
}

// Bridge is a Transport backed by a websocket to a bridge process that holds the actual
// game session. Frames in both directions use packet.Frame.
type Bridge struct {
	cfg    BridgeConfig
	logger *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
	closing   atomic.Bool
	events    chan Event
}

func NewBridge(cfg BridgeConfig, logger *slog.Logger) (*Bridge, error) {
	if err := validateBridgeURL(cfg.URL); err != nil {
		return nil, err
	}
	return &Bridge{
		cfg:    cfg.normalize(),
		logger: logger,
		events: make(chan Event, bridgeEventBuffer),
	}, nil
}

func validateBridgeURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid bridge url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	default:
		return errors.New("bridge url must use ws:// or wss://")
	}
	if parsed.Host == "" {
		return errors.New("bridge url host is required")
	}
	return nil
}

func (b *Bridge) Events() <-chan Event {
	return b.events
}

func (b *Bridge) Connected() bool {
	return b.connected.Load()
}

func (b *Bridge) SendPacket(payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return errNotConnected
	}
	return b.conn.WriteMessage(websocket.TextMessage, payload)
}

// Run keeps the bridge connected until ctx is cancelled or reconnect attempts run out.
func (b *Bridge) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = b.Close()
	}()

	attempts := 0
	for {
		if b.closing.Load() {
			return nil
		}
		if err := b.connect(ctx); err != nil {
			b.logger.Warn("Bridge connection failed", slog.Any("error", err), slog.Int("attempt", attempts+1))
			if !b.shouldReconnect(attempts) {
				return fmt.Errorf("bridge unreachable: %w", err)
			}
			attempts++
			if !sleepCtx(ctx, b.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}

		attempts = 0
		b.logger.Info("Bridge connected", slog.String("url", b.cfg.URL))
		err := b.readLoop()
		b.connected.Store(false)
		b.closeConn()
		if b.closing.Load() {
			return nil
		}
		b.emit(Disconnected{Reason: err.Error()})
		if !b.shouldReconnect(attempts) {
			return fmt.Errorf("bridge connection lost: %w", err)
		}
		attempts++
		if !sleepCtx(ctx, b.cfg.ReconnectDelay) {
			return nil
		}
	}
}

func (b *Bridge) connect(ctx context.Context) error {
	b.closeConn()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.cfg.URL, nil)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	b.connected.Store(true)
	return nil
}

func (b *Bridge) shouldReconnect(attempts int) bool {
	if !b.cfg.Reconnect {
		return false
	}
	if b.cfg.ReconnectMax == 0 {
		return true
	}
	return attempts < b.cfg.ReconnectMax
}

func (b *Bridge) readLoop() error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		e, err := decodeEvent(message)
		if err != nil {
			b.logger.Debug("Ignoring bridge frame", slog.Any("error", err))
			continue
		}
		b.emit(e)
	}
}

func (b *Bridge) emit(e Event) {
	select {
	case b.events <- e:
	default:
		b.logger.Warn("Bridge event buffer full, dropping event", slog.String("event", Name(e)))
	}
}

func (b *Bridge) Close() error {
	b.closing.Store(true)
	b.connected.Store(false)
	b.closeConn()
	return nil
}

func (b *Bridge) closeConn() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
}

type windowFrame struct {
	ID    int       `json:"id"`
	Type  string    `json:"type"`
	Title string    `json:"title"`
	Items []ui.Item `json:"items"`
	Item  ui.Item   `json:"item"`
}

func decodeEvent(message []byte) (Event, error) {
	f, err := packet.Decode(message)
	if err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	switch f.Type {
	case "login":
		var d struct {
			Username string `json:"username"`
		}
		err = unmarshalData(f.Data, &d)
		return Login{Username: d.Username}, err
	case "spawn":
		return Spawn{}, nil
	case "window_open", "window_items", "set_slot", "window_close":
		var d windowFrame
		if err = unmarshalData(f.Data, &d); err != nil {
			return nil, err
		}
		switch f.Type {
		case "window_open":
			return WindowOpened{ID: d.ID, Type: d.Type, Title: d.Title}, nil
		case "window_items":
			return WindowItems{ID: d.ID, Items: d.Items}, nil
		case "set_slot":
			return SlotUpdate{ID: d.ID, Item: d.Item}, nil
		}
		return WindowClosed{ID: d.ID}, nil
	case "open_sign":
		var d SignOpened
		err = unmarshalData(f.Data, &d)
		return d, err
	case "chat":
		var d struct {
			Text string `json:"text"`
		}
		err = unmarshalData(f.Data, &d)
		return ChatReceived{Text: d.Text}, err
	case "disconnect", "kicked":
		var d struct {
			Reason string `json:"reason"`
		}
		err = unmarshalData(f.Data, &d)
		return Disconnected{Reason: d.Reason}, err
	}

	return nil, fmt.Errorf("unknown frame type %q", f.Type)
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
