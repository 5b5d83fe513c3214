package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frikadellen/baf/internal/action/step"
	"github.com/frikadellen/baf/internal/baferr"
	"github.com/frikadellen/baf/internal/config"
	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/model"
	"github.com/frikadellen/baf/internal/state"
	"github.com/frikadellen/baf/internal/ui"
	"github.com/frikadellen/baf/internal/utils"
)

// Block ids the server expects in the click packet for the item currently in the slot.
const (
	goldNuggetItemID  = 371
	confirmPaneItemID = 159
	goldBlockItemID   = 41
)

const confirmSafetyClicks = 3

// Contents of the purchase slot.
const (
	slotBuy          = "gold_nugget"
	slotBed          = "bed"
	slotFeather      = "feather"
	slotClaim        = "gold_block"
	slotPotato       = "potato"
	slotTooPoor      = "poisonous_potato"
	slotGlassPane    = "stained_glass_pane"
	slotGlassPaneAlt = "glass_pane"
)

var errAuctionClaimed = errors.New("auction claimed")

// SkipReason returns why the confirmation click may be sent ahead of its window, or "" when
// the flip must take the normal path.
func SkipReason(skip config.SkipCfg, flip model.AuctionFlip) string {
	profit := flip.Profit()

	switch {
	case skip.Always:
		return "ALWAYS"
	case skip.MinProfit > 0 && profit >= skip.MinProfit:
		return fmt.Sprintf("MIN_PROFIT (%d >= %d)", profit, skip.MinProfit)
	case skip.UserFinder && flip.Finder == model.UserFinder:
		return "USER_FINDER"
	case skip.Skins && flip.IsSkin():
		return "SKINS"
	case skip.ProfitPercentage > 0 && flip.ProfitPerc >= skip.ProfitPercentage:
		return fmt.Sprintf("PROFIT_PERCENTAGE (%.1f >= %.1f)", flip.ProfitPerc, skip.ProfitPercentage)
	case skip.MinPrice > 0 && flip.StartingBid >= skip.MinPrice:
		return fmt.Sprintf("MIN_PRICE (%d >= %d)", flip.StartingBid, skip.MinPrice)
	}

	return ""
}

// BuyAuction runs the purchase protocol for one auction flip. The bot is Purchasing for the
// whole call and always returns to Idle. Failures are reported, never retried.
func BuyAuction(c context.Context, ctx *botCtx.Context, flip model.AuctionFlip) error {
	ctx.SetLastAction("BuyAuction")

	if err := ctx.State.Transition(state.Purchasing, "auction flip "+flip.UUID); err != nil {
		return err
	}
	defer ctx.State.CompareAndTransition(state.Purchasing, state.Idle, "auction flip finished")

	cfg := ctx.Cfg.Flips
	ctx.Logger.Info("Trying to purchase flip",
		slog.String("item", flip.ItemName),
		slog.String("price", model.FormatCoins(flip.StartingBid)),
		slog.String("target", model.FormatCoins(flip.Target)),
		slog.String("finder", flip.Finder),
	)

	buySpeed, skipReason, err := purchase(c, ctx, cfg, flip)
	switch {
	case errors.Is(err, errAuctionClaimed):
		ctx.Emit(event.AuctionClaimed(ctx.Text("Claimed sold auction "+flip.ItemName), flip))
		return nil
	case err != nil:
		reason := failureReason(err)
		ctx.Logger.Warn("Flip purchase failed",
			slog.String("item", flip.ItemName),
			slog.String("reason", reason),
			slog.Any("error", err),
		)
		step.CloseWindow(ctx, ctx.Tracker().Current())
		ctx.Emit(event.FlipFailed(ctx.Text("Failed to purchase "+flip.ItemName+": "+reason), flip, reason, err))
		return err
	}

	ctx.Logger.Info("Flip purchased",
		slog.String("item", flip.ItemName),
		slog.Duration("buySpeed", buySpeed),
		slog.String("skip", skipReason),
	)
	ctx.Emit(event.FlipPurchased(ctx.Text("Purchased "+flip.ItemName), flip, buySpeed, skipReason))
	return nil
}

func purchase(c context.Context, ctx *botCtx.Context, cfg config.FlipsCfg, flip model.AuctionFlip) (time.Duration, string, error) {
	if err := step.Command(ctx, "/viewauction "+flip.UUID); err != nil {
		return 0, "", err
	}

	view, err := step.WaitWindow(c, ctx, cfg.WindowTimeout(), ui.KindPurchaseView)
	if err != nil {
		return 0, "", fmt.Errorf("window never opened: %w", err)
	}
	openedAt := time.Now()

	if err = clickPurchase(c, ctx, cfg, view); err != nil {
		return 0, "", err
	}

	skipReason := SkipReason(cfg.Skip, flip)
	if skipReason != "" {
		// The confirmation window has not opened yet, its session is created ahead of time.
		next := ctx.Tracker().Reserve(game.NextWindowID(view.ID))
		if err = step.ClickRole(ctx, next, ui.KindConfirmPurchase, ui.RoleConfirm, confirmPaneItemID); err != nil {
			return 0, "", err
		}
		ctx.Logger.Info("Skip reason for "+flip.ItemName, slog.String("reason", skipReason))
	}

	confirm, err := step.WaitWindow(c, ctx, cfg.WindowTimeout(), ui.KindConfirmPurchase)
	if err != nil {
		return 0, skipReason, fmt.Errorf("confirmation never opened: %w", err)
	}
	buySpeed := time.Since(openedAt)

	if skipReason == "" {
		if err = step.ClickRole(ctx, confirm, ui.KindConfirmPurchase, ui.RoleConfirm, confirmPaneItemID); err != nil {
			return buySpeed, skipReason, err
		}
	}

	return buySpeed, skipReason, awaitConfirmed(c, ctx, cfg, confirm)
}

// awaitConfirmed waits for the confirmation window to close, re-clicking the confirm button
// in case a click was lost.
func awaitConfirmed(c context.Context, ctx *botCtx.Context, cfg config.FlipsCfg, confirm *game.WindowSession) error {
	wait := cfg.ActionDelay()
	for i := 0; ; i++ {
		err := ctx.Stream.AwaitClose(c, wait, confirm)
		if err == nil || !errors.Is(err, baferr.ErrWindowTimeout) {
			return err
		}
		if i == confirmSafetyClicks {
			return fmt.Errorf("confirmation window stayed open: %w", err)
		}
		ctx.Logger.Debug("Confirmation still open, clicking confirm again", slog.Int("window", confirm.ID))
		if err = step.ClickRole(ctx, confirm, ui.KindConfirmPurchase, ui.RoleConfirm, confirmPaneItemID); err != nil {
			return err
		}
		wait = utils.Jitter(cfg.ActionDelay() + 100*time.Millisecond)
	}
}

// clickPurchase inspects the purchase slot and clicks it once it holds the buy button.
func clickPurchase(c context.Context, ctx *botCtx.Context, cfg config.FlipsCfg, view *game.WindowSession) error {
	slot, _ := ui.Slot(ui.KindPurchaseView, ui.RolePurchase)

	for {
		item, err := ctx.Stream.AwaitSlot(c, cfg.WindowTimeout(), view, slot, func(ui.Item) bool { return true })
		if err != nil {
			return fmt.Errorf("%w: purchase slot never loaded: %w", baferr.ErrItemUnavailable, err)
		}

		switch item.Name {
		case slotBuy:
			return step.ClickRole(ctx, view, ui.KindPurchaseView, ui.RolePurchase, goldNuggetItemID)
		case slotBed:
			if !cfg.BedSpam {
				if err = awaitSlotChange(c, ctx, cfg, view, slot, slotBed); err != nil {
					return err
				}
				continue
			}
			return bedSpam(c, ctx, cfg, view, slot)
		case slotFeather:
			ctx.Logger.Debug("Found feather, waiting for the purchase slot to change")
			if err = awaitSlotChange(c, ctx, cfg, view, slot, slotFeather); err != nil {
				return err
			}
		case slotClaim:
			if err = claimAuction(ctx, view); err != nil {
				return err
			}
			return errAuctionClaimed
		case slotPotato, "", "air":
			return fmt.Errorf("%w: potatoed", baferr.ErrItemUnavailable)
		case slotTooPoor:
			return fmt.Errorf("%w: too poor to buy it", baferr.ErrItemUnavailable)
		case slotGlassPane, slotGlassPaneAlt:
			return fmt.Errorf("%w: auction is in an edge case state", baferr.ErrItemUnavailable)
		default:
			return fmt.Errorf("%w: unexpected item %q in purchase slot", baferr.ErrItemUnavailable, item.Name)
		}
	}
}

// claimAuction collects a sold auction of our own. The bot leaves Purchasing for Claiming while
// the claim click is sent.
func claimAuction(ctx *botCtx.Context, view *game.WindowSession) error {
	ctx.Logger.Info("Sold auction, claiming it")
	ctx.State.CompareAndTransition(state.Purchasing, state.Idle, "auction already sold")
	if err := ctx.State.Transition(state.Claiming, "claiming sold auction"); err != nil {
		return err
	}
	defer ctx.State.CompareAndTransition(state.Claiming, state.Idle, "auction claimed")

	return step.ClickRole(ctx, view, ui.KindPurchaseView, ui.RolePurchase, goldBlockItemID)
}

func awaitSlotChange(c context.Context, ctx *botCtx.Context, cfg config.FlipsCfg, view *game.WindowSession, slot int, from string) error {
	_, err := ctx.Stream.AwaitSlot(c, cfg.WindowTimeout(), view, slot, func(it ui.Item) bool {
		return it.Name != from
	})
	if err != nil {
		return fmt.Errorf("%w: purchase slot stuck on %s: %w", baferr.ErrItemUnavailable, from, err)
	}
	return nil
}

// bedSpam polls the purchase slot of an auction still in its grace period and buys it as soon
// as the buy button appears.
func bedSpam(c context.Context, ctx *botCtx.Context, cfg config.FlipsCfg, view *game.WindowSession, slot int) error {
	ctx.Logger.Info("Found a bed, starting bed spam")
	failed := 0
	for failed < cfg.BedSpamMaxFailedClicks {
		if !view.IsOpen() {
			return fmt.Errorf("%w: window closed during bed spam", baferr.ErrItemUnavailable)
		}
		if it, _ := view.Item(slot); it.Name == slotBuy {
			return step.ClickRole(ctx, view, ui.KindPurchaseView, ui.RolePurchase, goldNuggetItemID)
		}
		failed++

		if err := utils.Sleep(c, cfg.BedSpamClickDelay()); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: stopped bed spam after %d failed clicks", baferr.ErrItemUnavailable, failed)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, baferr.ErrItemUnavailable):
		return strings.TrimPrefix(err.Error(), baferr.ErrItemUnavailable.Error()+": ")
	case errors.Is(err, baferr.ErrWindowTimeout):
		msg := err.Error()
		if i := strings.Index(msg, ":"); i > 0 {
			return msg[:i]
		}
		return "window timeout"
	}
	return baferr.Kind(err)
}
