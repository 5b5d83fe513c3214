package cofl

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

	"github.com/gorilla/websocket"

	"github.com/frikadellen/baf/internal/config"
	"github.com/frikadellen/baf/internal/model"
)

var errNotConnected = errors.New("feed connection not established")

// Handler receives the recommendations decoded from the feed.
type Handler interface {
	OnFlip(flip model.AuctionFlip)
	OnBazaarOrder(order model.BazaarOrder)
	OnBazaarBatch(orders []model.BazaarOrder)
	OnExecute(command string)
	OnChat(text string)
}

type Config struct {
	URL            string
	Player         string
	Version        string
	SessionID      string
	Reconnect      bool
	ReconnectDelay time.Duration
	ReconnectMax   int
	PingInterval   time.Duration
}

func ConfigFrom(cfg *config.BafCfg) Config {
	return Config{
		URL:            cfg.Feed.URL,
		Player:         cfg.IngameName,
		Version:        cfg.Feed.Version,
		SessionID:      cfg.Feed.SessionID,
		Reconnect:      cfg.Feed.Reconnect,
		ReconnectDelay: cfg.Feed.ReconnectDelay(),
		ReconnectMax:   cfg.Feed.ReconnectMax,
		PingInterval:   cfg.Feed.PingInterval(),
	}
}

func (c Config) normalize() Config {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.ReconnectMax < 0 {
		c.ReconnectMax = 0
	}
	return c
}

// Client keeps a websocket to the recommendation feed open and hands every decoded message
// to its Handler.
type Client struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
	closing   atomic.Bool
}

func NewClient(cfg Config, handler Handler, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, errors.New("feed url must use ws:// or wss://")
	}
	if cfg.Player == "" {
		return nil, errors.New("feed requires the in-game name")
	}
	return &Client{cfg: cfg.normalize(), handler: handler, logger: logger}, nil
}

// FullURL returns the feed url with the session query parameters attached.
func (c *Client) FullURL() string {
	u, _ := url.Parse(c.cfg.URL)
	q := u.Query()
	q.Set("player", c.cfg.Player)
	q.Set("version", c.cfg.Version)
	q.Set("SId", c.cfg.SessionID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run keeps the feed connected until ctx is cancelled or reconnect attempts run out.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()
	go c.pingLoop(ctx)

	attempts := 0
	for {
		if c.closing.Load() {
			return nil
		}
		if err := c.connect(ctx); err != nil {
			c.logger.Warn("Feed connection failed", slog.Any("error", err), slog.Int("attempt", attempts+1))
			if !c.shouldReconnect(attempts) {
				return fmt.Errorf("feed unreachable: %w", err)
			}
			attempts++
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}

		attempts = 0
		c.logger.Info("Connected to recommendation feed", slog.String("url", c.cfg.URL))
		err := c.readLoop()
		c.connected.Store(false)
		c.closeConn()
		if c.closing.Load() {
			return nil
		}
		c.logger.Warn("Feed connection lost", slog.Any("error", err))
		if !c.shouldReconnect(attempts) {
			return fmt.Errorf("feed connection lost: %w", err)
		}
		attempts++
		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			return nil
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	c.closeConn()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.FullURL(), nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)
	return nil
}

func (c *Client) shouldReconnect(attempts int) bool {
	if !c.cfg.Reconnect {
		return false
	}
	if c.cfg.ReconnectMax == 0 {
		return true
	}
	return attempts < c.cfg.ReconnectMax
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				c.logger.Debug("Feed ping failed", slog.Any("error", err))
			}
		}
	}
}

func (c *Client) readLoop() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := c.Dispatch(message); err != nil {
			c.logger.Warn("Could not handle feed message", slog.Any("error", err))
		}
	}
}

// Dispatch decodes one feed frame and routes it to the handler. Unknown types are logged and
// ignored.
func (c *Client) Dispatch(message []byte) error {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("invalid feed message: %w", err)
	}
	c.logger.Debug("Feed message", slog.String("type", msg.Type))

	switch msg.Type {
	case "flip":
		var p flipPayload
		if err := unwrapData(msg.Data, &p); err != nil {
			return fmt.Errorf("invalid flip: %w", err)
		}
		c.handler.OnFlip(p.toFlip())
	case "bazaarFlip", "bzRecommend", "placeOrder":
		var p bazaarPayload
		if err := unwrapData(msg.Data, &p); err != nil {
			return fmt.Errorf("invalid bazaar recommendation: %w", err)
		}
		c.handler.OnBazaarOrder(p.toOrder())
	case "getbazaarflips":
		var ps []bazaarPayload
		if err := unwrapData(msg.Data, &ps); err != nil {
			return fmt.Errorf("invalid bazaar batch: %w", err)
		}
		orders := make([]model.BazaarOrder, 0, len(ps))
		for _, p := range ps {
			orders = append(orders, p.toOrder())
		}
		c.handler.OnBazaarBatch(orders)
	case "chatMessage", "writeToChat":
		text, err := chatText(msg.Data)
		if err != nil {
			return err
		}
		c.handler.OnChat(text)
	case "execute":
		var command string
		if err := unwrapData(msg.Data, &command); err != nil {
			return fmt.Errorf("invalid execute payload: %w", err)
		}
		c.handler.OnExecute(command)
	case "swapProfile", "createAuction", "trade", "tradeResponse", "getInventory", "runSequence", "privacySettings":
		c.logger.Info("Ignoring unsupported feed message", slog.String("type", msg.Type))
	default:
		c.logger.Warn("Unknown feed message type", slog.String("type", msg.Type))
	}
	return nil
}

func (c *Client) Close() error {
	c.closing.Store(true)
	c.connected.Store(false)
	c.closeConn()
	return nil
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
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
