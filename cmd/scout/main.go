package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/scout-bot/archive"
	"github.com/aluiziolira/scout-bot/config"
	"github.com/aluiziolira/scout-bot/scout"
	"github.com/aluiziolira/scout-bot/scraper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "scout",
		Short:         "scout polls a course search until places are free and sends notifications.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errors.New("a scout subcommand is required")
		},
	}

	names := make([]string, 0, len(scouts))
	for name := range scouts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: scouts[name].short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), name)
			},
		})
	}
	return root
}

func run(ctx context.Context, name string) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	registry := prometheus.NewRegistry()
	searchMetrics := scraper.NewMetrics(registry)
	loopMetrics := scout.NewMetrics(registry)
	stopMetrics := serveMetrics(cfg.MetricsAddr, registry, logger)
	defer stopMetrics()

	notifier := buildNotifier(cfg, name, logger)

	counter, closeCounter, err := buildRunCounter(ctx, cfg, name, logger)
	if err != nil {
		return err
	}
	defer closeCounter()

	var history archive.Writer
	if cfg.HistoryFile != "" {
		history, err = archive.New(cfg.HistoryFormat, cfg.HistoryFile)
		if err != nil {
			return fmt.Errorf("open history archive: %w", err)
		}
		defer func() {
			if err := history.Close(); err != nil {
				logger.Error("close history archive", slog.Any("error", err))
			}
		}()
	}

	sc, err := scouts[name].build(cfg, deps{
		Notifier: notifier,
		Archive:  history,
		Metrics:  searchMetrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	loop, err := scout.NewLoop(scout.Options{
		Scout:           sc,
		Counter:         counter,
		Notifier:        notifier,
		MaxAttempts:     cfg.MaxAttempts,
		ShortWait:       cfg.ShortWait,
		LongWait:        cfg.LongWait,
		NotifyNoResults: cfg.NotifyNoResults,
		Metrics:         loopMetrics,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting scout",
		slog.String("scout", name),
		slog.String("url", cfg.URL),
		slog.Int("max_attempts", cfg.MaxAttempts),
		slog.Duration("short_wait", cfg.ShortWait),
		slog.Duration("long_wait", cfg.LongWait),
	)

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutdown signal received, stopping")
		return nil
	}
	logger.Error("scout stopped", slog.Any("error", err))
	return err
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) func() {
	if addr == "" {
		return func() {}
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	logger.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
