package step

import (
	"fmt"
	"log/slog"

	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/ui"
)

// ClickRole resolves role for the session's window kind and clicks it with the item id the
// server expects to see in that slot.
func ClickRole(ctx *botCtx.Context, session *game.WindowSession, kind ui.WindowKind, role ui.Role, itemID int) error {
	slot, found := ui.Slot(kind, role)
	if !found {
		return fmt.Errorf("no %s slot for %s window", role, kind)
	}
	ctx.SetLastStep("Click " + string(role))

	action, err := ctx.PacketSender.ClickSlot(session, slot, itemID)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("Clicked window role",
		slog.String("role", string(role)),
		slog.Int("window", session.ID),
		slog.Int("slot", slot),
		slog.Int("action", action),
	)
	return nil
}

// LeftClickRole is ClickRole for menus that take a plain left click.
func LeftClickRole(ctx *botCtx.Context, session *game.WindowSession, role ui.Role) error {
	slot, found := ui.Slot(session.Kind, role)
	if !found {
		return fmt.Errorf("no %s slot for %s window", role, session.Kind)
	}
	ctx.SetLastStep("Click " + string(role))

	_, err := ctx.PacketSender.LeftClick(session, slot)
	return err
}

// LeftClickSlot clicks a slot found at runtime, such as a search result.
func LeftClickSlot(ctx *botCtx.Context, session *game.WindowSession, slot int) error {
	ctx.SetLastStep(fmt.Sprintf("Click slot %d", slot))
	_, err := ctx.PacketSender.LeftClick(session, slot)
	return err
}
