package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds scout configuration.
type Config struct {
	URL            string
	KeywordValue   string
	ShortWait      time.Duration
	LongWait       time.Duration
	MaxAttempts    int
	RequestTimeout time.Duration
	UserAgent      string

	TelegramToken  string
	TelegramChatID string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTo       []string

	RunCounterFile      string
	RunCounterRedisAddr string
	RunCounterSQLite    string

	HistoryFile   string
	HistoryFormat string // csv, json, or dual

	MetricsAddr     string
	NotifyNoResults bool
	Verbose         bool
}

// ConfigError reports configuration the scout cannot start with.
type ConfigError struct {
	Err error
}

func (e ConfigError) Error() string {
	return fmt.Errorf("configuration: %w", e.Err).Error()
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns the defaults; URL, keyword and a notification
// transport still have to be supplied.
func DefaultConfig() *Config {
	return &Config{
		ShortWait:       60 * time.Second,
		LongWait:        3600 * time.Second,
		MaxAttempts:     500,
		RequestTimeout:  30 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		SMTPPort:        587,
		RunCounterFile:  "run_number.txt",
		HistoryFormat:   "csv",
		NotifyNoResults: true,
	}
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// EmailEnabled reports whether SMTP delivery is configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && len(c.SMTPTo) > 0
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return ConfigError{Err: err}
	}
	return nil
}

func (c *Config) validate() error {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "URL")
	}
	if c.KeywordValue == "" {
		missing = append(missing, "KEYWORD_SELECTION_VALUE")
	}
	if !c.TelegramEnabled() && !c.EmailEnabled() {
		missing = append(missing, "TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID or SMTP_HOST/SMTP_FROM/SMTP_TO")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return errors.New("URL must be absolute")
	}

	if c.ShortWait < 0 {
		return fmt.Errorf("short wait cannot be negative")
	}
	if c.LongWait < 0 {
		return fmt.Errorf("long wait cannot be negative")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		return fmt.Errorf("smtp port out of range: %d", c.SMTPPort)
	}
	if c.RunCounterFile == "" && c.RunCounterRedisAddr == "" && c.RunCounterSQLite == "" {
		return fmt.Errorf("a run counter store is required")
	}
	if c.HistoryFile != "" && c.HistoryFormat != "csv" && c.HistoryFormat != "json" && c.HistoryFormat != "dual" {
		return fmt.Errorf("history format must be csv, json, or dual")
	}
	return nil
}
