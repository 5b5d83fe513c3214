package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	sloggger "github.com/frikadellen/baf/cmd/baf/log"
	"github.com/frikadellen/baf/internal/action"
	"github.com/frikadellen/baf/internal/bot"
	"github.com/frikadellen/baf/internal/config"
	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/remote/cofl"
	"github.com/frikadellen/baf/internal/remote/discord"
	ngrokremote "github.com/frikadellen/baf/internal/remote/ngrok"
	"github.com/frikadellen/baf/internal/remote/telegram"
	"github.com/frikadellen/baf/internal/server"
)

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, debug.Stack()))
				sloggger.FlushLog()
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return f()
	}
}

func runBot(parent context.Context, configPath string, debugLog bool) error {
	created, err := config.CreateFromTemplate(configPath)
	if err != nil {
		return err
	}
	if created {
		fmt.Println(renderNotice("Created " + configPath + " from the template. Run `baf init` or edit it, then start again."))
		return nil
	}

	if err = config.Load(configPath); err != nil {
		return err
	}
	cfg := config.Baf
	if cfg.IngameName == "" {
		return fmt.Errorf("ingameName is not set in %s", configPath)
	}

	logger, err := sloggger.NewLogger(cfg.Debug.Log || debugLog, cfg.LogSaveDirectory)
	if err != nil {
		return fmt.Errorf("error starting logger: %w", err)
	}
	defer sloggger.FlushAndClose()
	fmt.Println(renderBanner(cfg))

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	eventListener := event.NewListener(logger)

	bridge, err := game.NewBridge(game.BridgeConfig{
		URL:            cfg.Bridge.URL,
		Reconnect:      true,
		ReconnectDelay: time.Duration(cfg.Bridge.ReconnectDelayMs) * time.Millisecond,
	}, logger.With(slog.String("component", "bridge")))
	if err != nil {
		return err
	}

	bafCtx := botCtx.NewContext(cfg.IngameName, cfg, logger, bridge, eventListener)
	flipper := bot.NewBot(bafCtx, bridge, action.NewExecutor(bafCtx))

	feed, err := cofl.NewClient(cofl.ConfigFrom(cfg), flipper, logger.With(slog.String("component", "feed")))
	if err != nil {
		return err
	}

	eventListener.Register(func(_ context.Context, e event.Event) error {
		logger.Debug("Event", slog.String("bot", e.Bot()), slog.String("message", e.Message()))
		return nil
	})

	if cfg.Discord.Enabled {
		discordBot, err := discord.NewBot(cfg.Discord.Token, cfg.Discord.ChannelID, cfg.Discord.BotAdmins, flipper, cfg.Discord.UseWebhook, cfg.Discord.WebhookURL)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(discordBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				return discordBot.Start(ctx)
			}))
		}
	}

	if cfg.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(ctx, cfg.Telegram.Token, cfg.Telegram.ChatID, flipper, logger)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(telegramBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				defer telegramBot.Close()
				return telegramBot.Start(ctx)
			}))
		}
	}

	var ngrokTunnel *ngrokremote.Tunnel
	if cfg.Server.Enabled {
		srv, err := server.New(logger, flipper)
		if err != nil {
			return fmt.Errorf("error starting local server: %w", err)
		}
		eventListener.Register(srv.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			return srv.Listen(ctx, cfg.Server.Port)
		}))

		if cfg.Ngrok.Enabled {
			tunnel, err := ngrokremote.Start(ctx, ngrokremote.OptionsFrom(cfg))
			if err != nil {
				logger.Error("ngrok tunnel failed to start", slog.Any("error", err))
			} else {
				logger.Info("ngrok tunnel established", slog.String("url", tunnel.URL()))
				if cfg.Ngrok.SendURL {
					bafCtx.Emit(event.NgrokTunnel(bafCtx.Text("Status page available at "+tunnel.URL()), tunnel.URL()))
				}
				ngrokTunnel = tunnel
			}
		}
	}

	g.Go(wrapWithRecover(logger, func() error {
		return eventListener.Listen(ctx)
	}))
	g.Go(wrapWithRecover(logger, func() error {
		return bridge.Run(ctx)
	}))
	g.Go(wrapWithRecover(logger, func() error {
		return flipper.Run(ctx)
	}))
	g.Go(wrapWithRecover(logger, func() error {
		return feed.Run(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		logger.Info("BAF shutting down...")
		_ = bridge.Close()
		_ = feed.Close()
		if ngrokTunnel != nil {
			if closeErr := ngrokTunnel.Close(); closeErr != nil {
				logger.Error("error stopping ngrok tunnel", slog.Any("error", closeErr))
			}
		}
		return nil
	}))

	if err = g.Wait(); err != nil {
		logger.Error("Error running BAF", slog.Any("error", err))
		return err
	}
	return nil
}
