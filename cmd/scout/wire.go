package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/aluiziolira/scout-bot/archive"
	"github.com/aluiziolira/scout-bot/config"
	"github.com/aluiziolira/scout-bot/notify"
	"github.com/aluiziolira/scout-bot/runcounter"
	"github.com/aluiziolira/scout-bot/scout"
	"github.com/aluiziolira/scout-bot/scraper"
	"github.com/aluiziolira/scout-bot/vhsberlin"
)

// deps are the shared components handed to every scout.
type deps struct {
	Notifier notify.Sink
	Archive  archive.Writer
	Metrics  *scraper.Metrics
	Logger   *slog.Logger
}

type scoutEntry struct {
	short string
	build func(cfg *config.Config, d deps) (scout.Scout, error)
}

// scouts maps each subcommand to its site.
var scouts = map[string]scoutEntry{
	vhsberlin.Name: {
		short: "Watch the VHS Berlin course search for free places.",
		build: newVHSBerlin,
	},
}

func newVHSBerlin(cfg *config.Config, d deps) (scout.Scout, error) {
	searcher, err := vhsberlin.NewSearcher(scraper.Options{
		TargetURL: cfg.URL,
		Timeout:   cfg.RequestTimeout,
		UserAgent: cfg.UserAgent,
		Metrics:   d.Metrics,
		Logger:    d.Logger,
	}, cfg.KeywordValue)
	if err != nil {
		return nil, config.ConfigError{Err: err}
	}
	return vhsberlin.New(vhsberlin.Options{
		URL:      cfg.URL,
		LongWait: cfg.LongWait,
		Searcher: searcher,
		Notifier: d.Notifier,
		Archive:  d.Archive,
		Logger:   d.Logger,
	}), nil
}

func buildNotifier(cfg *config.Config, name string, logger *slog.Logger) notify.Sink {
	sinks := notify.Multi{notify.LogSink{Logger: logger}}
	if cfg.TelegramEnabled() {
		sinks = append(sinks, notify.NewTelegram(notify.TelegramOptions{
			Token:   cfg.TelegramToken,
			ChatID:  cfg.TelegramChatID,
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		}))
	}
	if cfg.EmailEnabled() {
		sinks = append(sinks, notify.NewEmail(notify.EmailOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.SMTPTo,
			Subject:  fmt.Sprintf("Scout %s", name),
			Logger:   logger,
		}))
	}
	return sinks
}

// buildRunCounter prefers Redis, then SQLite, then the plain file.
func buildRunCounter(ctx context.Context, cfg *config.Config, name string, logger *slog.Logger) (runcounter.Store, func(), error) {
	switch {
	case cfg.RunCounterRedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RunCounterRedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, runcounter.PersistenceError{Op: "connect", Err: err}
		}
		logger.Info("run counter", slog.String("store", "redis"), slog.String("addr", cfg.RunCounterRedisAddr))
		return runcounter.NewRedis(client, name), func() { _ = client.Close() }, nil
	case cfg.RunCounterSQLite != "":
		store, err := runcounter.OpenSQLite(ctx, cfg.RunCounterSQLite, name)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("run counter", slog.String("store", "sqlite"), slog.String("path", cfg.RunCounterSQLite))
		return store, func() { _ = store.Close() }, nil
	default:
		logger.Info("run counter", slog.String("store", "file"), slog.String("path", cfg.RunCounterFile))
		return runcounter.NewFile(cfg.RunCounterFile, logger), func() {}, nil
	}
}
