package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/frikadellen/baf/internal/config"
)

var playerNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

// runInit walks through the settings a first run needs and writes them to configPath.
func runInit(configPath string) error {
	cfg := config.Default()
	if _, err := os.Stat(configPath); err == nil {
		if err = config.Load(configPath); err != nil {
			return err
		}
		cfg = config.Baf
	}

	if err := survey.AskOne(&survey.Input{
		Message: "In-game name:",
		Help:    "The Minecraft account the bridge is logged in with",
		Default: cfg.IngameName,
	}, &cfg.IngameName, survey.WithValidator(validatePlayerName)); err != nil {
		return err
	}
	cfg.IngameName = strings.TrimSpace(cfg.IngameName)

	if err := survey.AskOne(&survey.Password{
		Message: "Coflnet session id (leave empty to link a new one):",
	}, &cfg.Feed.SessionID); err != nil {
		return err
	}
	if err := survey.AskOne(&survey.Confirm{
		Message: "Enable auction house flips?",
		Default: cfg.Flips.Enabled,
	}, &cfg.Flips.Enabled); err != nil {
		return err
	}
	if err := survey.AskOne(&survey.Confirm{
		Message: "Enable bazaar flips?",
		Default: cfg.Bazaar.Enabled,
	}, &cfg.Bazaar.Enabled); err != nil {
		return err
	}

	var webhook string
	if err := survey.AskOne(&survey.Input{
		Message: "Discord webhook URL (optional):",
		Default: cfg.Discord.WebhookURL,
	}, &webhook, survey.WithValidator(validateWebhookURL)); err != nil {
		return err
	}
	if webhook = strings.TrimSpace(webhook); webhook != "" {
		cfg.Discord.Enabled = true
		cfg.Discord.UseWebhook = true
		cfg.Discord.WebhookURL = webhook
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}
	fmt.Println(renderNotice("Saved " + configPath + ". Start flipping with `baf run`."))
	return nil
}

func validatePlayerName(val interface{}) error {
	str := strings.TrimSpace(val.(string))
	if !playerNamePattern.MatchString(str) {
		return errors.New("player names are 3-16 letters, digits or underscores")
	}
	return nil
}

func validateWebhookURL(val interface{}) error {
	str := strings.TrimSpace(val.(string))
	if str == "" || strings.HasPrefix(str, "https://discord.com/api/webhooks/") || strings.HasPrefix(str, "https://discordapp.com/api/webhooks/") {
		return nil
	}
	return errors.New("not a discord webhook URL")
}
