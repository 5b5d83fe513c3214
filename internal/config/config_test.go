package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baf.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "ingameName: Steve\nflips:\n  enabled: true\n  skip:\n    minProfit: -1\n")

	if err := Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := Get()
	if cfg.IngameName != "Steve" || !cfg.Flips.Enabled {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Flips.WindowTimeoutMs != 5000 || cfg.Queue.StaleThresholdMs != 60000 || cfg.Bazaar.MaxAttempts != 3 {
		t.Fatalf("defaults were not applied: %+v", cfg)
	}
	if cfg.Flips.Skip.MinProfit != -1 {
		t.Fatalf("a negative skip threshold must be kept, got %d", cfg.Flips.Skip.MinProfit)
	}
	if cfg.Flips.Skip.MinPrice != 10_000_000 {
		t.Fatalf("missing skip threshold must get its default, got %d", cfg.Flips.Skip.MinPrice)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BAF_INGAME_NAME", "Alex")
	t.Setenv("BAF_COFL_SESSION", "session-id")
	path := writeConfig(t, "ingameName: Steve\n")

	if err := Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := Get()
	if cfg.IngameName != "Alex" || cfg.Feed.SessionID != "session-id" {
		t.Fatalf("environment was not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidThresholds(t *testing.T) {
	path := writeConfig(t, "bazaar:\n  buyThreshold: 1.5\n  sellThreshold: 0.5\n")

	err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "buyThreshold") || !strings.Contains(err.Error(), "sellThreshold") {
		t.Fatalf("expected both threshold errors, got %v", err)
	}
}

func TestDiscordDisabledWithoutCredentials(t *testing.T) {
	cfg := Default()
	cfg.Discord.Enabled = true
	cfg.Discord.UseWebhook = true
	sanitizeDiscordConfig(cfg)
	if cfg.Discord.Enabled {
		t.Fatalf("discord must be disabled without a webhook url")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "baf.yaml")
	cfg := Default()
	cfg.IngameName = "Steve"
	cfg.Bazaar.RetryDelayMs = 2000

	if err := Save(path, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Get()
	if got.IngameName != "Steve" || got.Bazaar.RetryDelay().Milliseconds() != 2000 {
		t.Fatalf("unexpected config after save %+v", got)
	}
}

func TestThresholdDecimals(t *testing.T) {
	cfg := Default()
	if cfg.Bazaar.BuyThresholdDec().String() != "0.9" || cfg.Bazaar.SellThresholdDec().String() != "1.1" {
		t.Fatalf("unexpected thresholds %s %s", cfg.Bazaar.BuyThresholdDec(), cfg.Bazaar.SellThresholdDec())
	}
}

func TestCreateFromTemplateWritesConfigPath(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "template.yaml")
	if err := os.WriteFile(template, []byte("ingameName: Steve\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	old := templateFile
	templateFile = template
	t.Cleanup(func() { templateFile = old })

	path := filepath.Join(dir, "other", "name.yaml")
	created, err := CreateFromTemplate(path)
	if err != nil || !created {
		t.Fatalf("expected the config to be created, got %v %v", created, err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config was not written to %s: %v", path, err)
	}
	if string(body) != "ingameName: Steve\n" {
		t.Fatalf("unexpected config %q", body)
	}

	if created, err = CreateFromTemplate(path); err != nil || created {
		t.Fatalf("existing config must be left alone, got %v %v", created, err)
	}
}
