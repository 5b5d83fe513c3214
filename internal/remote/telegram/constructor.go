package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/frikadellen/baf/internal/utils"
)

const loginAttempts = 3

var (
	loginBackoff = 2 * time.Second
	newAPI       = tgbotapi.NewBotAPI
)

// NewBot logs in to the Bot API. The login is attempted a few times with a doubling pause,
// a transient failure there should not leave the flipper without notifications.
func NewBot(ctx context.Context, token string, chatID int64, controller Controller, logger *slog.Logger) (*Bot, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id are required")
	}

	pause := loginBackoff
	var lastErr error
	for attempt := 1; attempt <= loginAttempts; attempt++ {
		api, err := newAPI(token)
		if err == nil {
			return &Bot{bot: api, chatID: chatID, controller: controller, logger: logger}, nil
		}
		lastErr = err
		if attempt == loginAttempts {
			break
		}

		logger.Warn("Telegram login failed",
			slog.Int("attempt", attempt),
			slog.Duration("nextTry", pause),
			slog.Any("error", err),
		)
		if err = utils.Sleep(ctx, pause); err != nil {
			return nil, err
		}
		pause *= 2
	}

	return nil, fmt.Errorf("telegram login failed %d times: %w", loginAttempts, lastErr)
}
