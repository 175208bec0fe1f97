package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// File is the on-disk shape of a scout config file. Waits and timeouts are
// whole seconds.
type File struct {
	URL            string `json:"url"`
	KeywordValue   string `json:"keyword_selection_value"`
	ShortWait      int    `json:"short_wait"`
	LongWait       int    `json:"long_wait"`
	MaxAttempts    int    `json:"max_attempts"`
	RequestTimeout int    `json:"request_timeout"`
	UserAgent      string `json:"user_agent"`

	Telegram struct {
		Token  string `json:"bot_token"`
		ChatID string `json:"chat_id"`
	} `json:"telegram"`

	SMTP struct {
		Host     string   `json:"host"`
		Port     int      `json:"port"`
		Username string   `json:"username"`
		Password string   `json:"password"`
		From     string   `json:"from"`
		To       []string `json:"to"`
	} `json:"smtp"`

	RunCounter struct {
		File      string `json:"file"`
		RedisAddr string `json:"redis_addr"`
		SQLite    string `json:"sqlite"`
	} `json:"run_counter"`

	History struct {
		File   string `json:"file"`
		Format string `json:"format"`
	} `json:"history"`

	MetricsAddr     string `json:"metrics_addr"`
	NotifyNoResults *bool  `json:"notify_no_results"`
	Verbose         *bool  `json:"verbose"`
}

// ReadFile reads name and merges <name>.local.<ext> over it when present.
// It returns os.ErrNotExist when neither file exists.
func ReadFile(name string) (File, error) {
	var out File
	found := false

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		found = true
	}

	local := localName(name)
	data, err = os.ReadFile(local)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		var override File
		if err := json5.Unmarshal(data, &override); err != nil {
			return out, fmt.Errorf("parse %s: %w", local, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", slog.String("local", local))
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

func localName(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+".local"+ext)
}

// Apply copies every non-zero value of f onto cfg.
func (f File) Apply(cfg *Config) {
	setString(&cfg.URL, f.URL)
	setString(&cfg.KeywordValue, f.KeywordValue)
	setSeconds(&cfg.ShortWait, f.ShortWait)
	setSeconds(&cfg.LongWait, f.LongWait)
	setInt(&cfg.MaxAttempts, f.MaxAttempts)
	setSeconds(&cfg.RequestTimeout, f.RequestTimeout)
	setString(&cfg.UserAgent, f.UserAgent)

	setString(&cfg.TelegramToken, f.Telegram.Token)
	setString(&cfg.TelegramChatID, f.Telegram.ChatID)

	setString(&cfg.SMTPHost, f.SMTP.Host)
	setInt(&cfg.SMTPPort, f.SMTP.Port)
	setString(&cfg.SMTPUsername, f.SMTP.Username)
	setString(&cfg.SMTPPassword, f.SMTP.Password)
	setString(&cfg.SMTPFrom, f.SMTP.From)
	if len(f.SMTP.To) > 0 {
		cfg.SMTPTo = f.SMTP.To
	}

	setString(&cfg.RunCounterFile, f.RunCounter.File)
	setString(&cfg.RunCounterRedisAddr, f.RunCounter.RedisAddr)
	setString(&cfg.RunCounterSQLite, f.RunCounter.SQLite)
	setString(&cfg.HistoryFile, f.History.File)
	setString(&cfg.HistoryFormat, strings.ToLower(f.History.Format))

	setString(&cfg.MetricsAddr, f.MetricsAddr)
	if f.NotifyNoResults != nil {
		cfg.NotifyNoResults = *f.NotifyNoResults
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value int) {
	if value != 0 {
		*dst = value
	}
}

func setSeconds(dst *time.Duration, value int) {
	if value != 0 {
		*dst = time.Duration(value) * time.Second
	}
}
