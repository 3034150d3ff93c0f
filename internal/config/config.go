package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Scan struct {
		MinScore int    `yaml:"min_score"`
		Filter   string `yaml:"filter"`
		Lookback string `yaml:"lookback"`
		MinBars  int    `yaml:"min_bars"`
	} `yaml:"scan"`
	Fetch struct {
		Attempts        int             `yaml:"attempts"`
		Pauses          []time.Duration `yaml:"pauses"`
		RateLimitRPS    float64         `yaml:"rate_limit_rps"`
		RateBurst       int             `yaml:"rate_burst"`
		BreakerFailures uint32          `yaml:"breaker_failures"`
		BreakerTimeout  time.Duration   `yaml:"breaker_timeout"`
		Timeout         time.Duration   `yaml:"timeout"`
	} `yaml:"fetch"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Proxy       string `yaml:"proxy"`
	CatalogFile string `yaml:"catalog_file"`
	Telegram    struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("MIN_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.MinScore = n
		}
	}
	if v := os.Getenv("SCAN_FILTER"); v != "" {
		cfg.Scan.Filter = v
	}
	if v := os.Getenv("CATALOG_FILE"); v != "" {
		cfg.CatalogFile = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Scan.Lookback == "" {
		cfg.Scan.Lookback = "1y"
	}
	if cfg.Scan.MinBars == 0 {
		cfg.Scan.MinBars = 50
	}
	if cfg.Fetch.Attempts == 0 {
		cfg.Fetch.Attempts = 3
	}
	if len(cfg.Fetch.Pauses) == 0 {
		cfg.Fetch.Pauses = []time.Duration{time.Second, 1500 * time.Millisecond}
	}
	if cfg.Fetch.RateLimitRPS == 0 {
		cfg.Fetch.RateLimitRPS = 2
	}
	if cfg.Fetch.RateBurst == 0 {
		cfg.Fetch.RateBurst = 1
	}
	if cfg.Fetch.BreakerFailures == 0 {
		cfg.Fetch.BreakerFailures = 15
	}
	if cfg.Fetch.BreakerTimeout == 0 {
		cfg.Fetch.BreakerTimeout = 30 * time.Second
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 0 19 * * 1-5"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 14
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9102"
	}

	return cfg, nil
}

// Validate checks the engine settings. Telegram credentials are checked
// separately by ValidateTelegram since only watch mode needs them.
func (c *Config) Validate() error {
	if c.Scan.MinScore < 0 || c.Scan.MinScore > 100 {
		return fmt.Errorf("scan.min_score must be within 0-100, got %d", c.Scan.MinScore)
	}
	if c.Scan.Lookback != "1y" && c.Scan.Lookback != "2y" {
		return fmt.Errorf("scan.lookback must be 1y or 2y, got %q", c.Scan.Lookback)
	}
	if c.Scan.MinBars < 30 || c.Scan.MinBars > 50 {
		return fmt.Errorf("scan.min_bars must be within 30-50, got %d", c.Scan.MinBars)
	}
	if c.Fetch.Attempts < 1 {
		return fmt.Errorf("fetch.attempts must be positive")
	}
	for _, p := range c.Fetch.Pauses {
		if p < 0 {
			return fmt.Errorf("fetch.pauses must not be negative")
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// ValidateTelegram checks the credentials needed to send digests.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
