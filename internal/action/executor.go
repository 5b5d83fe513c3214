package action

import (
	"context"
	"log/slog"
	"strings"

	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/model"
)

// Executor runs queued commands against one bot.
type Executor struct {
	ctx *botCtx.Context
}

func NewExecutor(ctx *botCtx.Context) *Executor {
	return &Executor{ctx: ctx}
}

func (e *Executor) ExecuteFlip(c context.Context, flip model.AuctionFlip) error {
	return BuyAuction(c, e.ctx, flip)
}

func (e *Executor) ExecuteBazaar(c context.Context, order model.BazaarOrder) error {
	return PlaceBazaarOrder(c, e.ctx, order)
}

// ExecuteCommand sends text from the feed as if the player typed it.
func (e *Executor) ExecuteCommand(_ context.Context, text string) error {
	e.ctx.SetLastAction("ExecuteCommand")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	e.ctx.Logger.Info("Executing feed command", slog.String("command", text))
	return e.ctx.PacketSender.SendChat(text)
}
