package step

import (
	"context"
	"log/slog"
	"time"

	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/ui"
)

// Command sends a slash command, dropping any game events left over from earlier work first.
func Command(ctx *botCtx.Context, command string) error {
	ctx.SetLastStep("Command")
	ctx.Stream.Drain()
	return ctx.PacketSender.SendChat(command)
}

// WaitWindow waits for one of kinds to open. On timeout the predicted session is discarded
// so a late open event starts a fresh action counter.
func WaitWindow(c context.Context, ctx *botCtx.Context, timeout time.Duration, kinds ...ui.WindowKind) (*game.WindowSession, error) {
	ctx.SetLastStep("WaitWindow")
	session, err := ctx.Stream.AwaitWindow(c, timeout, kinds...)
	if err != nil {
		if current := ctx.Tracker().Current(); current != nil {
			ctx.Tracker().Discard(game.NextWindowID(current.ID))
		}
		return nil, err
	}
	ctx.Logger.Debug("Window opened",
		slog.Int("window", session.ID),
		slog.String("kind", session.Kind.String()),
		slog.String("title", session.Title),
	)
	return session, nil
}

// WaitItems waits until the session received its contents.
func WaitItems(c context.Context, ctx *botCtx.Context, timeout time.Duration, session *game.WindowSession, slot int) (ui.Item, error) {
	ctx.SetLastStep("WaitItems")
	return ctx.Stream.AwaitSlot(c, timeout, session, slot, func(it ui.Item) bool {
		return !it.Empty()
	})
}

// CloseWindow closes the session's window if it is still open.
func CloseWindow(ctx *botCtx.Context, session *game.WindowSession) {
	if session == nil || !session.IsOpen() {
		return
	}
	if err := ctx.PacketSender.CloseWindow(session.ID); err != nil {
		ctx.Logger.Debug("Failed to close window", slog.Int("window", session.ID), slog.Any("error", err))
	}
}
