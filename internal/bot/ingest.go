package bot

import (
	"log/slog"
	"strings"
	"time"

	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/model"
)

// The methods below are the entry points for recommendations received from the feed. Each one
// normalizes its message into a Command and queues it.

func (b *Bot) OnFlip(flip model.AuctionFlip) {
	if !b.ctx.Cfg.Flips.Enabled {
		b.ctx.Logger.Debug("Auction flips are disabled, ignoring flip", slog.String("item", flip.ItemName))
		return
	}
	if flip.UUID == "" {
		b.ctx.Logger.Warn("Ignoring flip without auction id", slog.String("item", flip.ItemName))
		return
	}
	if flip.CreatedAt.IsZero() {
		flip.CreatedAt = time.Now()
	}
	b.queue.Enqueue(NewFlipCommand(flip))
}

func (b *Bot) OnBazaarOrder(order model.BazaarOrder) {
	b.enqueueBazaar(order, false)
}

// OnBazaarBatch replaces queued bazaar orders with a fresh batch of recommendations.
func (b *Bot) OnBazaarBatch(orders []model.BazaarOrder) {
	if !b.ctx.Cfg.Bazaar.Enabled {
		return
	}
	if removed := b.queue.ClearBazaarOrders(); removed > 0 {
		b.ctx.Logger.Info("Replaced queued bazaar orders", slog.Int("removed", removed), slog.Int("new", len(orders)))
	}
	for _, o := range orders {
		b.enqueueBazaar(o, true)
	}
}

func (b *Bot) enqueueBazaar(order model.BazaarOrder, batch bool) {
	if !b.ctx.Cfg.Bazaar.Enabled {
		b.ctx.Logger.Debug("Bazaar flips are disabled, ignoring order", slog.String("item", order.ItemName))
		return
	}
	if order.ItemName == "" || order.Amount <= 0 || !order.PricePerUnit.IsPositive() {
		b.ctx.Logger.Warn("Ignoring invalid bazaar order", slog.String("order", order.String()))
		return
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	b.queue.Enqueue(NewBazaarCommand(order, batch))
}

func (b *Bot) OnExecute(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.queue.Enqueue(NewExecuteCommand(text))
}

// OnChat relays a feed chat message to the log and the notification channels. It is never queued.
func (b *Bot) OnChat(text string) {
	b.ctx.Logger.Info("[Coflnet] " + text)
	b.ctx.Emit(event.ChatRelay(b.ctx.Text(text), text))
}
