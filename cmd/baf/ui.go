package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/frikadellen/baf/internal/bot"
	"github.com/frikadellen/baf/internal/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(12)

	enabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)

func renderNotice(msg string) string {
	return noticeStyle.Render(msg)
}

func renderBanner(cfg *config.BafCfg) string {
	lines := []string{
		titleStyle.Render("BAF " + config.Version),
		row("Player", cfg.IngameName),
		row("AH flips", toggle(cfg.Flips.Enabled)),
		row("Bazaar", toggle(cfg.Bazaar.Enabled)),
	}
	if cfg.Server.Enabled {
		lines = append(lines, row("Status", fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderStatus(s bot.Status) string {
	state := s.State
	if s.Paused {
		state += " (paused)"
	}
	lines := []string{
		titleStyle.Render("BAF • " + s.Player),
		row("State", state),
		row("Since", s.StateSince.Format(time.TimeOnly)),
		row("Uptime", time.Since(s.StartedAt).Round(time.Second).String()),
	}
	if s.Current != "" {
		lines = append(lines, row("Running", s.Current))
	}
	lines = append(lines, row("Queued", fmt.Sprintf("%d", len(s.Queue))))
	for _, c := range s.Queue {
		lines = append(lines, fmt.Sprintf("  %-8s %s", c.Priority, c.Summary))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func toggle(on bool) string {
	if on {
		return enabledStyle.Render("enabled")
	}
	return disabledStyle.Render("disabled")
}
