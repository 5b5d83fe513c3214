package discord

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/model"
)

const iconBaseURL = "https://sky.coflnet.com/static/icon/"

func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	embed := buildEmbed(e)
	if embed == nil {
		return nil
	}
	return b.sendEmbed(ctx, embed)
}

// buildEmbed renders the events worth a notification. Everything else returns nil.
func buildEmbed(e event.Event) *discordgo.MessageEmbed {
	var embed *discordgo.MessageEmbed

	switch evt := e.(type) {
	case event.BotStartedEvent:
		embed = &discordgo.MessageEmbed{
			Title:       "✓ Started BAF",
			Description: fmt.Sprintf("Logged in as **%s** • <t:%d:R>", evt.Player, evt.OccurredAt().Unix()),
			Color:       0x00ff88,
		}
	case event.FlipPurchasedEvent:
		fields := []*discordgo.MessageEmbedField{
			{Name: "💰 Purchase Price", Value: coins(formatNumber(float64(evt.Flip.StartingBid))), Inline: true},
			{Name: "🎯 Target Price", Value: coins(formatNumber(float64(evt.Flip.Target))), Inline: true},
			{Name: "📈 Expected Profit", Value: profitField(evt.Flip.Profit()), Inline: true},
		}
		if evt.BuySpeed > 0 {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "⚡ Buy Speed", Value: fmt.Sprintf("```\n%dms\n```", evt.BuySpeed.Milliseconds()), Inline: true})
		}
		if evt.SkipReason != "" {
			fields = append(fields, &discordgo.MessageEmbedField{Name: "⏭️ Skipped Confirm", Value: fmt.Sprintf("```\n%s\n```", evt.SkipReason), Inline: true})
		}
		embed = &discordgo.MessageEmbed{
			Title:       "🛒 Item Purchased Successfully",
			Description: itemLine(evt.Flip.ItemName, evt.OccurredAt()),
			Color:       0x00ff00,
			Fields:      fields,
			Thumbnail:   thumbnail(evt.Flip.ItemName),
		}
	case event.FlipFailedEvent:
		embed = &discordgo.MessageEmbed{
			Title:       "❌ Purchase Failed",
			Description: itemLine(evt.Flip.ItemName, evt.OccurredAt()),
			Color:       0xff4444,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Reason", Value: fmt.Sprintf("```\n%s\n```", evt.Reason), Inline: false},
			},
		}
	case event.AuctionClaimedEvent:
		embed = &discordgo.MessageEmbed{
			Title:       "📥 Auction Claimed",
			Description: itemLine(evt.Flip.ItemName, evt.OccurredAt()),
			Color:       0x0099ff,
		}
	case event.BazaarOrderPlacedEvent:
		embed = bazaarPlacedEmbed(evt.Order, evt.OccurredAt())
	case event.BazaarOrderFailedEvent:
		embed = &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("❌ Bazaar %s Failed", orderType(evt.Order)),
			Description: itemLine(evt.Order.ItemName, evt.OccurredAt()),
			Color:       0xff4444,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Reason", Value: fmt.Sprintf("```\n%s\n```", evt.Reason), Inline: true},
				{Name: "Attempts", Value: fmt.Sprintf("```\n%d\n```", evt.Attempts), Inline: true},
			},
		}
	case event.DisconnectedEvent:
		embed = &discordgo.MessageEmbed{
			Title:       "🔌 Disconnected",
			Description: evt.Reason,
			Color:       0xff9900,
		}
	case event.HealthWarningEvent:
		embed = &discordgo.MessageEmbed{
			Title:       "⚠️ Window Timeouts",
			Description: fmt.Sprintf("%d windows in a row never opened, the bot was reset.", evt.Failures),
			Color:       0xff9900,
		}
	case event.NgrokTunnelEvent:
		embed = &discordgo.MessageEmbed{
			Title:       "🌐 Status Page",
			Description: evt.URL,
			Color:       0x5865F2,
		}
	default:
		return nil
	}

	embed.Footer = footer(e.Bot())
	return embed
}

func bazaarPlacedEmbed(order model.BazaarOrder, at time.Time) *discordgo.MessageEmbed {
	emoji, color := "🛒", 0x00cccc
	if order.IsSell() {
		emoji, color = "🏷️", 0xff9900
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s Bazaar %s Placed", emoji, orderType(order)),
		Description: itemLine(order.ItemName, at),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📦 Amount", Value: fmt.Sprintf("```fix\n%dx\n```", order.Amount), Inline: true},
			{Name: "💵 Price/Unit", Value: coins(formatDecimal(order.PricePerUnit)), Inline: true},
			{Name: "💰 Total Price", Value: coins(formatDecimal(order.Total())), Inline: true},
			{Name: "📊 Order Type", Value: fmt.Sprintf("```\n%s\n```", orderType(order)), Inline: false},
		},
		Thumbnail: thumbnail(order.ItemName),
	}
}

func orderType(order model.BazaarOrder) string {
	if order.IsBuyOrder {
		return "Buy Order"
	}
	return "Sell Offer"
}

func itemLine(item string, at time.Time) string {
	return fmt.Sprintf("**%s** • <t:%d:R>", item, at.Unix())
}

func coins(amount string) string {
	return fmt.Sprintf("```fix\n%s coins\n```", amount)
}

func profitField(profit int64) string {
	sign := ""
	if profit >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("```diff\n%s%s coins\n```", sign, formatNumber(float64(profit)))
}

func thumbnail(item string) *discordgo.MessageEmbedThumbnail {
	return &discordgo.MessageEmbedThumbnail{URL: iconBaseURL + sanitizeItemName(item)}
}

func footer(player string) *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{
		Text:    "BAF • " + player,
		IconURL: fmt.Sprintf("https://mc-heads.net/avatar/%s/32.png", player),
	}
}

// formatNumber abbreviates coin amounts to millions and thousands.
func formatNumber(n float64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", n/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.2fK", n/1_000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatDecimal(d decimal.Decimal) string {
	return formatNumber(d.InexactFloat64())
}

func sanitizeItemName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, name)
}

func (b *Bot) sendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	if b.useWebhook {
		return b.webhookClient.SendEmbed(ctx, embed)
	}

	_, err := b.discordSession.ChannelMessageSendEmbed(b.channelID, embed)
	return err
}
