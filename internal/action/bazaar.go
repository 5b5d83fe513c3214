package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
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

const resultGrace = 300 * time.Millisecond

type attemptStep int

const (
	attemptDone attemptStep = iota
	attemptRetry
	attemptFailed
)

// attemptDecision is what happens after an order attempt finished with a given outcome.
type attemptDecision struct {
	step    attemptStep
	attempt int
	err     error
}

// nextAttempt maps an attempt number and its outcome to the next action. It keeps no state.
func nextAttempt(attempt, maxAttempts int, outcome error) attemptDecision {
	switch {
	case outcome == nil:
		return attemptDecision{step: attemptDone, attempt: attempt}
	case !baferr.Retryable(outcome):
		return attemptDecision{step: attemptFailed, attempt: attempt, err: outcome}
	case attempt >= maxAttempts:
		return attemptDecision{
			step:    attemptFailed,
			attempt: attempt,
			err:     fmt.Errorf("%w after %d attempts: %w", baferr.ErrRetryExhausted, attempt, outcome),
		}
	}
	return attemptDecision{step: attemptRetry, attempt: attempt + 1}
}

// PlaceBazaarOrder places a buy order or sell offer, retrying recoverable failures. The bot is
// in Bazaar state for the call and back to Idle when it returns. Cancelling c interrupts it.
func PlaceBazaarOrder(c context.Context, ctx *botCtx.Context, order model.BazaarOrder) error {
	ctx.SetLastAction("PlaceBazaarOrder")

	if err := ctx.State.Transition(state.Bazaar, "bazaar "+order.String()); err != nil {
		return err
	}
	defer ctx.State.CompareAndTransition(state.Bazaar, state.Idle, "bazaar order finished")

	cfg := ctx.Cfg.Bazaar
	ctx.Logger.Info("Placing bazaar order",
		slog.String("side", order.Side()),
		slog.String("item", order.ItemName),
		slog.Int64("amount", order.Amount),
		slog.String("pricePerUnit", order.PricePerUnit.StringFixed(1)),
		slog.String("total", order.Total().StringFixed(1)),
	)

	attempt := 1
	for {
		confirmed := false
		err := checkStale(ctx.Cfg.Queue, order)
		if err == nil {
			if attempt > 1 {
				ctx.Logger.Info("Retrying bazaar order", slog.Int("attempt", attempt), slog.Int("max", cfg.MaxAttempts))
			}
			confirmed, err = placeOrder(c, ctx, order)
		}
		if err != nil && !confirmed && c.Err() != nil {
			err = fmt.Errorf("%w: %v", baferr.ErrInterrupted, err)
		}
		if err != nil {
			ctx.Logger.Warn("Bazaar order attempt failed",
				slog.Int("attempt", attempt),
				slog.String("kind", baferr.Kind(err)),
				slog.Any("error", err),
			)
			step.CloseWindow(ctx, ctx.Tracker().Current())
		}

		decision := nextAttempt(attempt, cfg.MaxAttempts, err)
		if decision.step == attemptRetry && confirmed && c.Err() != nil {
			// The confirm click already went out, so neither a retry nor a requeue may follow.
			decision = attemptDecision{step: attemptFailed, attempt: attempt, err: err}
		}
		switch decision.step {
		case attemptDone:
			ctx.Logger.Info("Bazaar order placed", slog.String("order", order.String()), slog.Int("attempts", attempt))
			ctx.Emit(event.BazaarOrderPlaced(ctx.Text(fmt.Sprintf("Placed %s order for %s", strings.ToLower(order.Side()), order.ItemName)), order, attempt))
			return nil
		case attemptFailed:
			if errors.Is(decision.err, baferr.ErrInterrupted) {
				return decision.err
			}
			ctx.Emit(event.BazaarOrderFailed(
				ctx.Text(fmt.Sprintf("Failed to place %s order for %s", strings.ToLower(order.Side()), order.ItemName)),
				order, baferr.Kind(decision.err), attempt, decision.err,
			))
			return decision.err
		}

		if err = utils.SleepJitter(c, cfg.RetryDelay()); err != nil {
			return fmt.Errorf("%w: %v", baferr.ErrInterrupted, err)
		}
		attempt = decision.attempt
	}
}

func checkStale(cfg config.QueueCfg, order model.BazaarOrder) error {
	if order.CreatedAt.IsZero() {
		return nil
	}
	if age := time.Since(order.CreatedAt); age > cfg.StaleThreshold() {
		return fmt.Errorf("%w: %s is %s old", baferr.ErrStaleRecommendation, order.ItemName, age.Round(time.Millisecond))
	}
	return nil
}

// placeOrder walks the bazaar menus once: search, item page, amount, price, confirmation.
// confirmed reports whether the confirm click was sent. From then on the result is awaited even
// if c is cancelled.
func placeOrder(c context.Context, ctx *botCtx.Context, order model.BazaarOrder) (confirmed bool, err error) {
	timeout := ctx.Cfg.Flips.WindowTimeout()

	if err = step.Command(ctx, "/bz "+order.SearchTerm()); err != nil {
		return false, err
	}

	win, err := step.WaitWindow(c, ctx, timeout, ui.KindBazaarSearch, ui.KindItemDetail)
	if err != nil {
		return false, err
	}

	if win.Kind == ui.KindBazaarSearch {
		if win, err = openSearchResult(c, ctx, timeout, win, order); err != nil {
			return false, err
		}
	}

	role := ui.RoleCreateBuyOrder
	if !order.IsBuyOrder {
		role = ui.RoleCreateSellOffer
	}
	if err = step.LeftClickRole(ctx, win, role); err != nil {
		return false, err
	}

	if order.IsBuyOrder {
		if err = enterValue(c, ctx, timeout, ui.KindOrderAmount, ui.RoleCustomAmount, strconv.FormatInt(order.Amount, 10)); err != nil {
			return false, err
		}
	}

	if err = enterValue(c, ctx, timeout, ui.KindOrderPrice, ui.RoleCustomPrice, order.PricePerUnit.StringFixed(1)); err != nil {
		return false, err
	}

	confirm, err := step.WaitWindow(c, ctx, timeout, ui.KindOrderConfirm)
	if err != nil {
		return false, err
	}
	if err = checkConfirmPrice(c, ctx, timeout, confirm, order); err != nil {
		return false, err
	}
	if err = step.LeftClickRole(ctx, confirm, ui.RoleConfirm); err != nil {
		return false, err
	}

	return true, awaitOrderResult(context.WithoutCancel(c), ctx, timeout, confirm)
}

func openSearchResult(c context.Context, ctx *botCtx.Context, timeout time.Duration, search *game.WindowSession, order model.BazaarOrder) (*game.WindowSession, error) {
	if _, err := step.WaitItems(c, ctx, timeout, search, roleSlot(ui.KindBazaarSearch, ui.RoleFirstResult)); err != nil {
		return nil, err
	}

	slot, match := ui.FindItem(ctx.Logger, search.Items(), order.ItemName)
	if match == ui.NoMatch {
		return nil, fmt.Errorf("%w: %s not found in bazaar search", baferr.ErrItemUnavailable, order.ItemName)
	}
	ctx.Logger.Debug("Found bazaar search result", slog.Int("slot", slot), slog.String("match", match.String()))

	if err := step.LeftClickSlot(ctx, search, slot); err != nil {
		return nil, err
	}
	return step.WaitWindow(c, ctx, timeout, ui.KindItemDetail)
}

// enterValue opens the custom value sign of an amount or price window and writes value.
func enterValue(c context.Context, ctx *botCtx.Context, timeout time.Duration, kind ui.WindowKind, role ui.Role, value string) error {
	win, err := step.WaitWindow(c, ctx, timeout, kind)
	if err != nil {
		return err
	}
	if err = step.LeftClickRole(ctx, win, role); err != nil {
		return err
	}
	return step.EnterSign(c, ctx, timeout, value)
}

// checkConfirmPrice validates the unit price shown on the confirmation screen before it is accepted.
func checkConfirmPrice(c context.Context, ctx *botCtx.Context, timeout time.Duration, confirm *game.WindowSession, order model.BazaarOrder) error {
	if _, err := step.WaitItems(c, ctx, timeout, confirm, roleSlot(ui.KindOrderConfirm, ui.RoleConfirm)); err != nil {
		return err
	}

	entered, found := enteredUnitPrice(confirm.Items())
	if !found {
		ctx.Logger.Debug("Confirmation shows no unit price, using the entered value")
		entered = order.PricePerUnit
	}

	cfg := ctx.Cfg.Bazaar
	return CheckPriceFailsafe(order, entered, cfg.BuyThresholdDec(), cfg.SellThresholdDec())
}

// awaitOrderResult watches what follows the confirm click. A second confirmation screen is
// accepted as well, a red rejection line fails the attempt.
func awaitOrderResult(c context.Context, ctx *botCtx.Context, timeout time.Duration, confirm *game.WindowSession) error {
	ctx.SetLastStep("AwaitOrderResult")

	var rejection string
	var setup bool
	var secondary *game.WindowSession
	_, err := ctx.Stream.Await(c, timeout, "bazaar order result", func(e game.Event) bool {
		switch evt := e.(type) {
		case game.ChatReceived:
			if msg, found := ui.ErrorLine(evt.Text); found {
				rejection = msg
				return true
			}
			setup = isOrderSetup(evt.Text)
			return setup
		case game.WindowItems:
			if msg, found := ui.FindError(evt.Items); found {
				rejection = msg
				return true
			}
		case game.WindowOpened:
			if evt.ID == confirm.ID || secondary != nil {
				return false
			}
			if evt.Kind() == ui.KindOrderConfirm {
				secondary = ctx.Tracker().Lookup(evt.ID)
				if secondary == nil {
					return false
				}
				if err := step.LeftClickRole(ctx, secondary, ui.RoleConfirm); err != nil {
					ctx.Logger.Warn("Failed to click secondary confirmation", slog.Any("error", err))
				}
				return false
			}
			return true
		case game.WindowClosed:
			if secondary != nil {
				return evt.ID == secondary.ID
			}
			return evt.ID == confirm.ID
		}
		return false
	})

	if rejection != "" {
		return fmt.Errorf("%w: %s", baferr.ErrOrderRejected, rejection)
	}
	if setup {
		return nil
	}
	closed := !confirm.IsOpen() && (secondary == nil || !secondary.IsOpen())
	if err != nil && !(errors.Is(err, baferr.ErrWindowTimeout) && closed) {
		return err
	}

	// The rejection message can arrive right after the window closed.
	if text, chatErr := ctx.Stream.AwaitChat(c, resultGrace, "bazaar order message", func(text string) bool {
		_, rejected := ui.ErrorLine(text)
		return rejected || isOrderSetup(text)
	}); chatErr == nil {
		if msg, rejected := ui.ErrorLine(text); rejected {
			return fmt.Errorf("%w: %s", baferr.ErrOrderRejected, msg)
		}
	}
	return nil
}

func roleSlot(kind ui.WindowKind, role ui.Role) int {
	slot, _ := ui.Slot(kind, role)
	return slot
}

func isOrderSetup(text string) bool {
	clean := ui.StripColors(text)
	return strings.Contains(clean, "Buy Order Setup!") || strings.Contains(clean, "Sell Offer Setup!")
}
