package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type PrerequisitePolicy string

const (
	// PrerequisitePolicyProceed treats a reference to a missing prerequisite
	// order as no prerequisite.
	PrerequisitePolicyProceed PrerequisitePolicy = "proceed"
	// PrerequisitePolicyBlock refuses to execute while the prerequisite is missing.
	PrerequisitePolicyBlock PrerequisitePolicy = "block"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Brokerage BrokerageConfig `yaml:"brokerage"`
	Engine    EngineConfig    `yaml:"engine"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Address   string `yaml:"address"`
	PublicURL string `yaml:"public_url"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url"`
}

type BrokerageConfig struct {
	Kind       string        `yaml:"kind"`
	BaseURL    string        `yaml:"base_url"`
	AccountID  string        `yaml:"account_id"`
	Token      string        `yaml:"token"`
	BelowTick  float64       `yaml:"below_tick"`
	AboveTick  float64       `yaml:"above_tick"`
	TickCutoff float64       `yaml:"tick_cutoff"`
	Timeout    time.Duration `yaml:"timeout"`
}

type EngineConfig struct {
	FillWait            time.Duration      `yaml:"fill_wait"`
	SettleWait          time.Duration      `yaml:"settle_wait"`
	FinalSettleWait     time.Duration      `yaml:"final_settle_wait"`
	EmergencyBuyWait    time.Duration      `yaml:"emergency_buy_wait"`
	EmergencySellWait   time.Duration      `yaml:"emergency_sell_wait"`
	EmergencySettleWait time.Duration      `yaml:"emergency_settle_wait"`
	CleanupInterval     time.Duration      `yaml:"cleanup_interval"`
	PrerequisitePolicy  PrerequisitePolicy `yaml:"prerequisite_policy"`
}

type NotifierConfig struct {
	Kinds    []string       `yaml:"kinds"`
	Slack    SlackConfig    `yaml:"slack"`
	Pushover PushoverConfig `yaml:"pushover"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type PushoverConfig struct {
	APIToken  string `yaml:"api_token"`
	UserToken string `yaml:"user_token"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:   ":5555",
			PublicURL: "http://127.0.0.1:5555",
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "db.sqlite3",
		},
		Brokerage: BrokerageConfig{
			Kind:       "tradier",
			BaseURL:    "https://sandbox.tradier.com/v1",
			BelowTick:  0.05,
			AboveTick:  0.10,
			TickCutoff: 3.00,
			Timeout:    10 * time.Second,
		},
		Engine: EngineConfig{
			FillWait:            2 * time.Second,
			SettleWait:          3 * time.Second,
			FinalSettleWait:     3 * time.Second,
			EmergencyBuyWait:    10 * time.Second,
			EmergencySellWait:   20 * time.Second,
			EmergencySettleWait: 2 * time.Second,
			CleanupInterval:     4 * time.Second,
			PrerequisitePolicy:  PrerequisitePolicyProceed,
		},
		Notifier: NotifierConfig{
			Kinds: []string{"log"},
			Email: EmailConfig{Port: 465},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "tradebox",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// TRADEBOX_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config.Load: failed to read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config.Load: failed to parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("TRADEBOX_SERVER_ADDRESS", &c.Server.Address)
	str("TRADEBOX_PUBLIC_URL", &c.Server.PublicURL)
	str("TRADEBOX_DATABASE_DRIVER", &c.Database.Driver)
	str("TRADEBOX_SQLITE_PATH", &c.Database.SQLitePath)
	str("TRADEBOX_POSTGRES_URL", &c.Database.PostgresURL)
	str("TRADEBOX_BROKERAGE_KIND", &c.Brokerage.Kind)
	str("TRADEBOX_TRADIER_BASE_URL", &c.Brokerage.BaseURL)
	str("TRADEBOX_TRADIER_ACCOUNT_ID", &c.Brokerage.AccountID)
	str("TRADEBOX_TRADIER_TOKEN", &c.Brokerage.Token)
	str("TRADEBOX_SLACK_WEBHOOK_URL", &c.Notifier.Slack.WebhookURL)
	str("TRADEBOX_PUSHOVER_API_TOKEN", &c.Notifier.Pushover.APIToken)
	str("TRADEBOX_PUSHOVER_USER_TOKEN", &c.Notifier.Pushover.UserToken)
	str("TRADEBOX_TELEGRAM_BOT_TOKEN", &c.Notifier.Telegram.BotToken)
	str("TRADEBOX_TELEGRAM_CHAT_ID", &c.Notifier.Telegram.ChatID)
	str("TRADEBOX_SMTP_PASSWORD", &c.Notifier.Email.Password)
	str("TRADEBOX_LOG_LEVEL", &c.Logging.Level)
	str("TRADEBOX_LOG_DIR", &c.Logging.Dir)

	if v, ok := lookup("TRADEBOX_NOTIFIERS"); ok && v != "" {
		var kinds []string
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kinds = append(kinds, k)
			}
		}
		c.Notifier.Kinds = kinds
	}

	if v, ok := lookup("TRADEBOX_TELEMETRY_ENABLED"); ok {
		c.Telemetry.Enabled = strings.EqualFold(v, "true")
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.PostgresURL == "" {
		return fmt.Errorf("database.postgres_url is required for the postgres driver")
	}

	switch c.Brokerage.Kind {
	case "tradier", "simulator":
	default:
		return fmt.Errorf("unknown brokerage kind %q", c.Brokerage.Kind)
	}

	for _, k := range c.Notifier.Kinds {
		switch k {
		case "log", "slack", "pushover", "telegram", "email":
		default:
			return fmt.Errorf("unknown notifier kind %q", k)
		}
	}

	delays := map[string]time.Duration{
		"fill_wait":             c.Engine.FillWait,
		"settle_wait":           c.Engine.SettleWait,
		"final_settle_wait":     c.Engine.FinalSettleWait,
		"emergency_buy_wait":    c.Engine.EmergencyBuyWait,
		"emergency_sell_wait":   c.Engine.EmergencySellWait,
		"emergency_settle_wait": c.Engine.EmergencySettleWait,
		"cleanup_interval":      c.Engine.CleanupInterval,
	}
	for name, d := range delays {
		if d < 0 {
			return fmt.Errorf("engine.%s must not be negative", name)
		}
	}

	switch c.Engine.PrerequisitePolicy {
	case PrerequisitePolicyProceed, PrerequisitePolicyBlock:
	default:
		return fmt.Errorf("unknown prerequisite policy %q", c.Engine.PrerequisitePolicy)
	}

	return nil
}
