package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFile is read when SCOUT_CONFIG is unset.
const DefaultFile = "scout.json5"

// Load layers defaults, the config file, a .env file and the environment,
// in increasing priority, and validates the result. A missing config file or
// .env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, ConfigError{Err: err}
	}

	cfg := DefaultConfig()

	name := DefaultFile
	if value, ok := EnvString("SCOUT_CONFIG"); ok {
		name = value
	}
	file, err := ReadFile(name)
	switch {
	case err == nil:
		file.Apply(cfg)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, ConfigError{Err: err}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with every recognised environment variable that is
// set.
func ApplyEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"URL", &cfg.URL},
		{"KEYWORD_SELECTION_VALUE", &cfg.KeywordValue},
		{"USER_AGENT", &cfg.UserAgent},
		{"TELEGRAM_BOT_TOKEN", &cfg.TelegramToken},
		{"TELEGRAM_CHAT_ID", &cfg.TelegramChatID},
		{"SMTP_HOST", &cfg.SMTPHost},
		{"SMTP_USERNAME", &cfg.SMTPUsername},
		{"SMTP_PASSWORD", &cfg.SMTPPassword},
		{"SMTP_FROM", &cfg.SMTPFrom},
		{"RUN_COUNTER_FILE", &cfg.RunCounterFile},
		{"RUN_COUNTER_REDIS_ADDR", &cfg.RunCounterRedisAddr},
		{"RUN_COUNTER_SQLITE", &cfg.RunCounterSQLite},
		{"HISTORY_FILE", &cfg.HistoryFile},
		{"HISTORY_FORMAT", &cfg.HistoryFormat},
		{"METRICS_ADDR", &cfg.MetricsAddr},
	}
	for _, s := range strs {
		if value, ok := EnvString(s.key); ok {
			*s.dst = value
		}
	}
	cfg.HistoryFormat = strings.ToLower(cfg.HistoryFormat)

	if to, ok := EnvList("SMTP_TO"); ok {
		cfg.SMTPTo = to
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_ATTEMPTS", &cfg.MaxAttempts},
		{"SMTP_PORT", &cfg.SMTPPort},
	}
	for _, i := range ints {
		value, ok, err := EnvInt(i.key)
		if err != nil {
			return ConfigError{Err: err}
		}
		if ok {
			*i.dst = value
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SHORT_WAIT", &cfg.ShortWait},
		{"LONG_WAIT", &cfg.LongWait},
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout},
	}
	for _, d := range durations {
		value, ok, err := EnvSeconds(d.key)
		if err != nil {
			return ConfigError{Err: err}
		}
		if ok {
			*d.dst = value
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"NOTIFY_NO_RESULTS", &cfg.NotifyNoResults},
		{"SCOUT_VERBOSE", &cfg.Verbose},
	}
	for _, b := range bools {
		value, ok, err := EnvBool(b.key)
		if err != nil {
			return ConfigError{Err: err}
		}
		if ok {
			*b.dst = value
		}
	}
	return nil
}
