package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/frikadellen/baf/internal/bot"
)

const maxQueueLines = 15

func statusEmbed(s bot.Status) *discordgo.MessageEmbed {
	statusText := "✅ " + s.State
	if s.Paused {
		statusText = "⏸️ Paused (" + s.State + ")"
	}
	current := s.Current
	if current == "" {
		current = "-"
	}
	player := s.Player
	if player == "" {
		player = "not logged in"
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Status for %s", s.Name),
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Player", Value: player, Inline: true},
			{Name: "State", Value: statusText, Inline: true},
			{Name: "Uptime", Value: formatUptime(time.Since(s.StartedAt)), Inline: true},
			{Name: "Current", Value: current, Inline: false},
			{Name: "Queued", Value: fmt.Sprintf("%d", len(s.Queue)), Inline: true},
		},
	}
}

func queueEmbed(s bot.Status) *discordgo.MessageEmbed {
	var description strings.Builder
	if len(s.Queue) == 0 {
		description.WriteString("Queue is empty.")
	}
	for i, c := range s.Queue {
		if i == maxQueueLines {
			description.WriteString(fmt.Sprintf("… and %d more\n", len(s.Queue)-maxQueueLines))
			break
		}
		description.WriteString(fmt.Sprintf("`%-8s` %s (%s ago)\n", c.Priority, c.Summary, formatUptime(time.Since(c.EnqueuedAt))))
	}

	return &discordgo.MessageEmbed{
		Title:       "📋 Command Queue",
		Description: description.String(),
		Color:       0x5865F2,
	}
}

func helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🤖 BAF Discord Commands",
		Description: "Monitor and steer the flip bot",
		Color:       0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "!status", Value: "Show the bot state, player and uptime"},
			{Name: "!queue", Value: "List the queued commands in dispatch order"},
			{Name: "!execute <command>", Value: "Queue a chat command\nExample: `!execute /cofl online`"},
			{Name: "!pause / !resume", Value: "Stop or restart taking commands from the queue"},
			{Name: "!help", Value: "Show this help message"},
		},
	}
}

func formatUptime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
