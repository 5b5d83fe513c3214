package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/frikadellen/baf/internal/bot"
)

// Controller is the part of the bot reachable from chat commands.
type Controller interface {
	Status() bot.Status
	OnExecute(text string)
	SetPaused(paused bool)
}

type Bot struct {
	discordSession *discordgo.Session
	channelID      string
	admins         []string
	controller     Controller
	useWebhook     bool
	webhookClient  *webhookClient
}

func NewBot(token, channelID string, admins []string, controller Controller, useWebhook bool, webhookURL string) (*Bot, error) {
	botInstance := &Bot{
		channelID:  channelID,
		admins:     admins,
		controller: controller,
		useWebhook: useWebhook,
	}

	if useWebhook {
		if webhookURL == "" {
			return nil, fmt.Errorf("webhook URL is required when using webhook mode")
		}
		botInstance.webhookClient = newWebhookClient(webhookURL)
		return botInstance, nil
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	botInstance.discordSession = dg

	return botInstance, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if b.useWebhook {
		<-ctx.Done()
		return nil
	}

	b.discordSession.AddHandler(b.onMessageCreated)
	// Reading command text needs the message content intent.
	b.discordSession.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	err := b.discordSession.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()

	return b.discordSession.Close()
}

func (b *Bot) onMessageCreated(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if !slices.Contains(b.admins, m.Author.ID) {
		return
	}
	if !strings.HasPrefix(m.Content, "!") {
		return
	}

	if embed, text := b.handleCommand(m.Content); embed != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, embed)
	} else if text != "" {
		s.ChannelMessageSend(m.ChannelID, text)
	}
}

// handleCommand runs a chat command and returns the reply, either an embed or plain text.
func (b *Bot) handleCommand(content string) (*discordgo.MessageEmbed, string) {
	words := strings.Fields(content)
	if len(words) == 0 {
		return nil, ""
	}

	switch words[0] {
	case "!status":
		return statusEmbed(b.controller.Status()), ""
	case "!queue":
		return queueEmbed(b.controller.Status()), ""
	case "!execute":
		if len(words) < 2 {
			return nil, "Usage: !execute <command>\nExample: `!execute /cofl online`"
		}
		command := strings.TrimSpace(strings.TrimPrefix(content, words[0]))
		b.controller.OnExecute(command)
		return nil, fmt.Sprintf("Queued `%s`", command)
	case "!pause":
		b.controller.SetPaused(true)
		return nil, "Dispatching paused. Queued recommendations still expire."
	case "!resume":
		b.controller.SetPaused(false)
		return nil, "Dispatching resumed."
	case "!help":
		return helpEmbed(), ""
	}
	return nil, fmt.Sprintf("Unknown command: `%s`. Type `!help` for available commands.", words[0])
}
