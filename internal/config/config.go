package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	cp "github.com/otiai10/copy"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/baf.yaml"

var templateFile = "config/template/baf.yaml"

var (
	cfgMux  sync.RWMutex
	Baf     *BafCfg
	Version = "dev"
)

type SkipCfg struct {
	Always           bool    `yaml:"always"`
	MinProfit        int64   `yaml:"minProfit"`
	UserFinder       bool    `yaml:"userFinder"`
	Skins            bool    `yaml:"skins"`
	ProfitPercentage float64 `yaml:"profitPercentage"`
	MinPrice         int64   `yaml:"minPrice"`
}

type FlipsCfg struct {
	Enabled                bool    `yaml:"enabled"`
	ActionDelayMs          int     `yaml:"actionDelayMs"`
	WindowTimeoutMs        int     `yaml:"windowTimeoutMs"`
	BedSpam                bool    `yaml:"bedSpam"`
	BedSpamClickDelayMs    int     `yaml:"bedSpamClickDelayMs"`
	BedSpamMaxFailedClicks int     `yaml:"bedSpamMaxFailedClicks"`
	Skip                   SkipCfg `yaml:"skip"`
}

type BazaarCfg struct {
	Enabled       bool    `yaml:"enabled"`
	MaxAttempts   int     `yaml:"maxAttempts"`
	RetryDelayMs  int     `yaml:"retryDelayMs"`
	GracePeriodMs int     `yaml:"gracePeriodMs"`
	BuyThreshold  float64 `yaml:"buyThreshold"`
	SellThreshold float64 `yaml:"sellThreshold"`
}

type QueueCfg struct {
	StaleThresholdMs int `yaml:"staleThresholdMs"`
	PollIntervalMs   int `yaml:"pollIntervalMs"`
}

type FeedCfg struct {
	URL              string `yaml:"url"`
	Version          string `yaml:"version"`
	SessionID        string `yaml:"sessionId"`
	Reconnect        bool   `yaml:"reconnect"`
	ReconnectDelayMs int    `yaml:"reconnectDelayMs"`
	ReconnectMax     int    `yaml:"reconnectMax"`
	PingIntervalMs   int    `yaml:"pingIntervalMs"`
}

type BafCfg struct {
	IngameName       string `yaml:"ingameName"`
	LogSaveDirectory string `yaml:"logSaveDirectory"`
	Debug            struct {
		Log bool `yaml:"log"`
	} `yaml:"debug"`
	Feed   FeedCfg `yaml:"feed"`
	Bridge struct {
		URL              string `yaml:"url"`
		ReconnectDelayMs int    `yaml:"reconnectDelayMs"`
		StartupDelayMs   int    `yaml:"startupDelayMs"`
	} `yaml:"bridge"`
	Flips  FlipsCfg  `yaml:"flips"`
	Bazaar BazaarCfg `yaml:"bazaar"`
	Queue  QueueCfg  `yaml:"queue"`
	Health struct {
		MaxConsecutiveTimeouts int `yaml:"maxConsecutiveTimeouts"`
	} `yaml:"health"`
	Discord struct {
		Enabled    bool     `yaml:"enabled"`
		BotAdmins  []string `yaml:"botAdmins"`
		ChannelID  string   `yaml:"channelId"`
		Token      string   `yaml:"token"`
		UseWebhook bool     `yaml:"useWebhook"`
		WebhookURL string   `yaml:"webhookUrl"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		ChatID  int64  `yaml:"chatId"`
		Token   string `yaml:"token"`
	} `yaml:"telegram"`
	Server struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"server"`
	Ngrok struct {
		Enabled       bool   `yaml:"enabled"`
		SendURL       bool   `yaml:"sendUrl"`
		Authtoken     string `yaml:"authtoken"`
		Region        string `yaml:"region"`
		Domain        string `yaml:"domain"`
		BasicAuthUser string `yaml:"basicAuthUser"`
		BasicAuthPass string `yaml:"basicAuthPass"`
	} `yaml:"ngrok"`
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (c FlipsCfg) ActionDelay() time.Duration       { return ms(c.ActionDelayMs) }
func (c FlipsCfg) WindowTimeout() time.Duration     { return ms(c.WindowTimeoutMs) }
func (c FlipsCfg) BedSpamClickDelay() time.Duration { return ms(c.BedSpamClickDelayMs) }
func (c BazaarCfg) RetryDelay() time.Duration       { return ms(c.RetryDelayMs) }
func (c BazaarCfg) GracePeriod() time.Duration      { return ms(c.GracePeriodMs) }
func (c QueueCfg) StaleThreshold() time.Duration    { return ms(c.StaleThresholdMs) }
func (c QueueCfg) PollInterval() time.Duration      { return ms(c.PollIntervalMs) }
func (c FeedCfg) ReconnectDelay() time.Duration     { return ms(c.ReconnectDelayMs) }
func (c FeedCfg) PingInterval() time.Duration       { return ms(c.PingIntervalMs) }

func (c BazaarCfg) BuyThresholdDec() decimal.Decimal  { return decimal.NewFromFloat(c.BuyThreshold) }
func (c BazaarCfg) SellThresholdDec() decimal.Decimal { return decimal.NewFromFloat(c.SellThreshold) }

// Default returns a configuration with every tunable at its default value.
func Default() *BafCfg {
	cfg := &BafCfg{}
	cfg.Flips.Enabled = true
	cfg.Bazaar.Enabled = true
	cfg.Feed.Reconnect = true
	cfg.Server.Enabled = true
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *BafCfg) {
	setDefault := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}

	if cfg.LogSaveDirectory == "" {
		cfg.LogSaveDirectory = "logs"
	}
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = "wss://sky.coflnet.com/modsocket"
	}
	if cfg.Feed.Version == "" {
		cfg.Feed.Version = "af-3.0-go"
	}
	setDefault(&cfg.Feed.ReconnectDelayMs, 5000)
	setDefault(&cfg.Feed.PingIntervalMs, 30000)
	if cfg.Bridge.URL == "" {
		cfg.Bridge.URL = "ws://127.0.0.1:7878/bridge"
	}
	setDefault(&cfg.Bridge.ReconnectDelayMs, 5000)
	setDefault(&cfg.Bridge.StartupDelayMs, 3000)

	setDefault(&cfg.Flips.ActionDelayMs, 150)
	setDefault(&cfg.Flips.WindowTimeoutMs, 5000)
	setDefault(&cfg.Flips.BedSpamClickDelayMs, 100)
	setDefault(&cfg.Flips.BedSpamMaxFailedClicks, 5)
	// A negative skip threshold disables that predicate.
	if cfg.Flips.Skip.MinProfit == 0 {
		cfg.Flips.Skip.MinProfit = 1_000_000
	}
	if cfg.Flips.Skip.ProfitPercentage == 0 {
		cfg.Flips.Skip.ProfitPercentage = 50
	}
	if cfg.Flips.Skip.MinPrice == 0 {
		cfg.Flips.Skip.MinPrice = 10_000_000
	}

	setDefault(&cfg.Bazaar.MaxAttempts, 3)
	setDefault(&cfg.Bazaar.RetryDelayMs, 1100)
	setDefault(&cfg.Bazaar.GracePeriodMs, 2000)
	if cfg.Bazaar.BuyThreshold <= 0 {
		cfg.Bazaar.BuyThreshold = 0.9
	}
	if cfg.Bazaar.SellThreshold <= 0 {
		cfg.Bazaar.SellThreshold = 1.1
	}

	setDefault(&cfg.Queue.StaleThresholdMs, 60000)
	setDefault(&cfg.Queue.PollIntervalMs, 250)
	setDefault(&cfg.Health.MaxConsecutiveTimeouts, 5)
	setDefault(&cfg.Server.Port, 8080)
}

// Load reads the configuration file into Baf. Secrets may also come from a .env file or
// the environment.
func Load(path string) error {
	cfgMux.Lock()
	defer cfgMux.Unlock()

	if path == "" {
		path = DefaultPath
	}

	_ = godotenv.Load()

	cfgPath := getAbsPath(path)
	r, err := os.Open(cfgPath)
	if err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	defer r.Close()

	cfg := &BafCfg{}
	d := yaml.NewDecoder(r)
	if err = d.Decode(cfg); err != nil {
		return fmt.Errorf("error reading config %s: %w", cfgPath, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	sanitizeDiscordConfig(cfg)
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}

	Baf = cfg
	return nil
}

// Get returns a copy of the loaded configuration.
func Get() BafCfg {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	if Baf == nil {
		return *Default()
	}
	return *Baf
}

func applyEnv(cfg *BafCfg) {
	if v := os.Getenv("BAF_INGAME_NAME"); v != "" {
		cfg.IngameName = v
	}
	if v := os.Getenv("BAF_COFL_SESSION"); v != "" {
		cfg.Feed.SessionID = v
	}
	if v := os.Getenv("BAF_DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("BAF_DISCORD_WEBHOOK"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("BAF_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("NGROK_AUTHTOKEN"); v != "" && cfg.Ngrok.Authtoken == "" {
		cfg.Ngrok.Authtoken = v
	}
}

func sanitizeDiscordConfig(cfg *BafCfg) {
	if !cfg.Discord.Enabled {
		return
	}
	useWebhook := cfg.Discord.UseWebhook
	webhookURL := strings.TrimSpace(cfg.Discord.WebhookURL)
	token := strings.TrimSpace(cfg.Discord.Token)
	channelID := strings.TrimSpace(cfg.Discord.ChannelID)

	if (useWebhook && webhookURL == "") || (!useWebhook && (token == "" || channelID == "")) {
		cfg.Discord.Enabled = false
	}
}

func (c *BafCfg) Validate() error {
	var errs []error
	if c.Flips.WindowTimeoutMs <= 0 {
		errs = append(errs, errors.New("flips.windowTimeoutMs must be positive"))
	}
	if c.Bazaar.MaxAttempts <= 0 {
		errs = append(errs, errors.New("bazaar.maxAttempts must be positive"))
	}
	if c.Bazaar.BuyThreshold <= 0 || c.Bazaar.BuyThreshold > 1 {
		errs = append(errs, errors.New("bazaar.buyThreshold must be in (0, 1]"))
	}
	if c.Bazaar.SellThreshold < 1 {
		errs = append(errs, errors.New("bazaar.sellThreshold must be at least 1"))
	}
	if c.Queue.StaleThresholdMs <= 0 {
		errs = append(errs, errors.New("queue.staleThresholdMs must be positive"))
	}
	return errors.Join(errs...)
}

// CreateFromTemplate writes the bundled template to path when no configuration exists there
// yet. It reports whether the file was created.
func CreateFromTemplate(path string) (bool, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return false, nil
	}

	if err := cp.Copy(templateFile, path); err != nil {
		return false, fmt.Errorf("error copying template: %w", err)
	}

	return true, nil
}

// Save writes cfg to path and reloads it.
func Save(path string, cfg *BafCfg) error {
	if cfg == nil {
		return errors.New("baf config is nil")
	}
	if path == "" {
		path = DefaultPath
	}
	sanitizeDiscordConfig(cfg)

	text, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error parsing baf config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err = os.WriteFile(path, text, 0644); err != nil {
		return fmt.Errorf("error writing baf config: %w", err)
	}

	return Load(path)
}

func getAbsPath(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		return relPath
	}
	return filepath.Join(cwd, relPath)
}
