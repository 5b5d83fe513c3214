package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/frikadellen/baf/internal/bot"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/model"
)

// Controller is the part of the bot reachable from chat commands.
type Controller interface {
	Status() bot.Status
	OnExecute(text string)
	SetPaused(paused bool)
}

type Bot struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	controller Controller
	logger     *slog.Logger
}

func (b *Bot) Start(ctx context.Context) error {
	offset, err := b.getLatestOffset()
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 5
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			for range updates {
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			if reply := handleCommand(b.controller, update.Message.Text); reply != "" {
				b.send(reply)
			}
		}
	}
}

// Handle forwards notable events to the configured chat.
func (b *Bot) Handle(_ context.Context, e event.Event) error {
	text := messageFor(e)
	if text == "" {
		return nil
	}
	return b.send(text)
}

func (b *Bot) send(text string) error {
	_, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, text))
	if err != nil {
		b.logger.Warn("Telegram send failed", slog.Any("error", err))
	}
	return err
}

func (b *Bot) Close() {
	if b == nil || b.bot == nil {
		return
	}
	b.bot.StopReceivingUpdates()
	if c, ok := b.bot.Client.(*http.Client); ok && c != nil {
		if tr, ok := c.Transport.(*http.Transport); ok && tr != nil {
			tr.CloseIdleConnections()
		}
	}
}

func (b *Bot) getLatestOffset() (int, error) {
	upds, err := b.bot.GetUpdates(tgbotapi.NewUpdate(-1))
	if err != nil {
		return 0, err
	}
	offset := 0
	if len(upds) > 0 {
		offset = upds[0].UpdateID + 1
	}
	return offset, nil
}

func handleCommand(c Controller, text string) string {
	text = strings.TrimSpace(text)
	cmd, arg, _ := strings.Cut(text, " ")

	switch strings.ToLower(cmd) {
	case "status", "/status":
		s := c.Status()
		paused := ""
		if s.Paused {
			paused = " (paused)"
		}
		return fmt.Sprintf("%s is %s%s, %d queued", s.Name, s.State, paused, len(s.Queue))
	case "queue", "/queue":
		s := c.Status()
		if len(s.Queue) == 0 {
			return "Queue is empty."
		}
		var sb strings.Builder
		for _, q := range s.Queue {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", q.Priority, q.Summary))
		}
		return strings.TrimSpace(sb.String())
	case "execute", "/execute":
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return "Usage: execute <command>"
		}
		c.OnExecute(arg)
		return "Queued " + arg
	case "pause", "/pause":
		c.SetPaused(true)
		return "Dispatching paused."
	case "resume", "/resume":
		c.SetPaused(false)
		return "Dispatching resumed."
	}
	return ""
}

func messageFor(e event.Event) string {
	switch evt := e.(type) {
	case event.BotStartedEvent:
		return fmt.Sprintf("[%s] Started BAF", evt.Bot())
	case event.FlipPurchasedEvent:
		return fmt.Sprintf("[%s] Bought %s for %s coins (target %s, profit %s)", evt.Bot(), evt.Flip.ItemName,
			model.FormatCoins(evt.Flip.StartingBid), model.FormatCoins(evt.Flip.Target), model.FormatCoins(evt.Flip.Profit()))
	case event.FlipFailedEvent:
		return fmt.Sprintf("[%s] Could not buy %s: %s", evt.Bot(), evt.Flip.ItemName, evt.Reason)
	case event.BazaarOrderPlacedEvent:
		return fmt.Sprintf("[%s] Placed %s", evt.Bot(), evt.Order.String())
	case event.BazaarOrderFailedEvent:
		return fmt.Sprintf("[%s] Bazaar order failed after %d attempts: %s (%s)", evt.Bot(), evt.Attempts, evt.Order.String(), evt.Reason)
	case event.DisconnectedEvent:
		return fmt.Sprintf("[%s] Disconnected: %s", evt.Bot(), evt.Reason)
	case event.HealthWarningEvent:
		return fmt.Sprintf("[%s] %d window timeouts in a row, bot reset", evt.Bot(), evt.Failures)
	case event.NgrokTunnelEvent:
		return fmt.Sprintf("[%s] Status page: %s", evt.Bot(), evt.URL)
	}
	return ""
}
