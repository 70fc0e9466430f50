package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TradeLens/internal/collector"
	"TradeLens/internal/logging"
)

// WatchEntry is a trade re-rendered on a schedule.
type WatchEntry struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
	Cron  string `yaml:"cron"`
}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Charts struct {
		CompareSymbol string `yaml:"compare_symbol"`
		Height        int    `yaml:"height"`
	} `yaml:"charts"`
	Input struct {
		Source string `yaml:"source"` // "form" or "query"
	} `yaml:"input"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Schedule struct {
		Watch []WatchEntry `yaml:"watch"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log   logging.LogConfig `yaml:"log"`
	Proxy string            `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{Log: logging.DefaultLogConfig()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRADELENS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("TRADELENS_INPUT_SOURCE"); v != "" {
		cfg.Input.Source = v
	}
	if v := os.Getenv("TRADELENS_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRADELENS_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("TRADELENS_COMPARE_SYMBOL"); v != "" {
		cfg.Charts.CompareSymbol = v
	}
	if v := os.Getenv("TRADELENS_CHART_HEIGHT"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			cfg.Charts.Height = h
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "http://localhost:8080"
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if cfg.Charts.CompareSymbol == "" {
		cfg.Charts.CompareSymbol = collector.DefaultCompareSymbol
	}
	if cfg.Charts.Height == 0 {
		cfg.Charts.Height = 400
	}
	if cfg.Input.Source == "" {
		cfg.Input.Source = collector.SourceForm
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8090"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "charts"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/tradelens.db"
	}
	for i := range cfg.Schedule.Watch {
		if cfg.Schedule.Watch[i].Cron == "" {
			cfg.Schedule.Watch[i].Cron = "0 30 16 * * 1-5"
		}
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required")
	}
	if c.Input.Source != collector.SourceForm && c.Input.Source != collector.SourceQuery {
		return fmt.Errorf("input.source must be %q or %q, got %q", collector.SourceForm, collector.SourceQuery, c.Input.Source)
	}
	if c.Charts.Height <= 0 {
		return fmt.Errorf("charts.height must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	seen := make(map[string]bool, len(c.Schedule.Watch))
	for i, w := range c.Schedule.Watch {
		if w.Name == "" {
			return fmt.Errorf("schedule.watch[%d].name is required", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("schedule.watch[%d]: duplicate name %q", i, w.Name)
		}
		seen[w.Name] = true
		if w.Query == "" {
			return fmt.Errorf("schedule.watch[%d].query is required", i)
		}
	}
	return nil
}

// TelegramEnabled reports whether alerts and commands can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
