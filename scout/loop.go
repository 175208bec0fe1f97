package scout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/scout-bot/models"
	"github.com/aluiziolira/scout-bot/notify"
	"github.com/aluiziolira/scout-bot/runcounter"
	"github.com/aluiziolira/scout-bot/scraper"
)

// Options configures a Loop.
type Options struct {
	Scout       Scout
	Counter     runcounter.Store
	Notifier    notify.Sink
	MaxAttempts int
	ShortWait   time.Duration
	LongWait    time.Duration
	// NotifyNoResults sends a message for every empty search, not only for errors.
	NotifyNoResults bool
	Metrics         *Metrics
	Logger          *slog.Logger

	// Sleep and Jitter default to a context-aware timer and Jitter.
	Sleep  func(ctx context.Context, d time.Duration) error
	Jitter func(base time.Duration) time.Duration
}

// RunResult summarises one finished run.
type RunResult struct {
	Run       uint64
	Attempts  int
	Succeeded bool
	Outcome   models.Outcome
}

// Loop retries a scout's search until it succeeds or the attempt budget is
// spent, then waits and starts the next run. It is not safe for concurrent use.
type Loop struct {
	scout           Scout
	counter         runcounter.Store
	notifier        notify.Sink
	maxAttempts     int
	shortWait       time.Duration
	longWait        time.Duration
	notifyNoResults bool
	metrics         *Metrics
	logger          *slog.Logger
	sleep           func(ctx context.Context, d time.Duration) error
	jitter          func(base time.Duration) time.Duration

	state  models.RunState
	loaded bool
}

// NewLoop validates opts and builds a loop.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Scout == nil {
		return nil, errors.New("scout is required")
	}
	if opts.Counter == nil {
		return nil, errors.New("run counter is required")
	}
	if opts.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	if opts.ShortWait < 0 || opts.LongWait < 0 {
		return nil, fmt.Errorf("waits cannot be negative")
	}

	l := &Loop{
		scout:           opts.Scout,
		counter:         opts.Counter,
		notifier:        opts.Notifier,
		maxAttempts:     opts.MaxAttempts,
		shortWait:       opts.ShortWait,
		longWait:        opts.LongWait,
		notifyNoResults: opts.NotifyNoResults,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		sleep:           opts.Sleep,
		jitter:          opts.Jitter,
	}
	if l.notifier == nil {
		l.notifier = notify.Multi{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.sleep == nil {
		l.sleep = sleepContext
	}
	if l.jitter == nil {
		l.jitter = Jitter
	}
	l.logger = l.logger.With(slog.String("scout", opts.Scout.Name()))
	return l, nil
}

// Run executes runs until ctx is done or the run counter fails. It never
// returns nil.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if _, err := l.RunOnce(ctx); err != nil {
			return err
		}
		if err := l.wait(ctx, l.longWait); err != nil {
			return err
		}
	}
}

// RunOnce performs a single run: it advances the run number, searches up to
// the attempt budget and hands the result to the scout's success or failure
// handler. Errors from a search never end the run; only a run counter failure
// or a done ctx does.
func (l *Loop) RunOnce(ctx context.Context) (RunResult, error) {
	run, err := l.nextRun(ctx)
	if err != nil {
		return RunResult{}, err
	}

	start := fmt.Sprintf("🚀 Starting run #%d", run)
	l.logger.Info("starting run", slog.Uint64("run", run))
	l.notifier.Send(ctx, start)

	result := RunResult{Run: run}
	for l.state.Attempt < l.maxAttempts {
		l.state.Attempt++
		result.Attempts = l.state.Attempt

		outcome, err := l.attempt(ctx)
		if err == nil && outcome.Success() {
			l.metrics.IncAttempt(outcome.Kind.String())
			l.metrics.IncRun("success")
			l.metrics.SetRecords(len(outcome.Records))
			l.logger.Info("search succeeded",
				slog.Uint64("run", run),
				slog.Int("attempt", l.state.Attempt),
				slog.Int("count", outcome.Count),
				slog.Int("records", len(outcome.Records)),
			)
			result.Succeeded = true
			result.Outcome = outcome
			l.scout.HandleSuccess(ctx, run, outcome)
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		l.reportAttempt(ctx, run, outcome, err)
		result.Outcome = outcome

		if err := l.wait(ctx, l.shortWait); err != nil {
			return result, err
		}
	}

	l.metrics.IncRun("exhausted")
	l.logger.Warn("attempts exhausted",
		slog.Uint64("run", run),
		slog.Int("max_attempts", l.maxAttempts),
	)
	l.scout.HandleFailure(ctx, run, l.maxAttempts)
	return result, nil
}

// State returns the current run number and attempt.
func (l *Loop) State() models.RunState {
	return l.state
}

func (l *Loop) nextRun(ctx context.Context) (uint64, error) {
	if !l.loaded {
		run, err := l.counter.Load(ctx)
		if err != nil {
			return 0, fmt.Errorf("load run number: %w", err)
		}
		l.state.RunNumber = run
		l.loaded = true
	}

	next := l.state.RunNumber + 1
	if err := l.counter.Save(ctx, next); err != nil {
		return 0, fmt.Errorf("save run number: %w", err)
	}
	l.state = models.RunState{RunNumber: next}
	l.metrics.SetRun(next)
	return next, nil
}

func (l *Loop) attempt(ctx context.Context) (models.Outcome, error) {
	markup, err := l.scout.PerformSearch(ctx)
	if err != nil {
		return models.Outcome{}, err
	}
	return l.scout.ParseResults(markup)
}

func (l *Loop) reportAttempt(ctx context.Context, run uint64, outcome models.Outcome, err error) {
	attempt := l.state.Attempt

	if err != nil {
		label := scraper.ErrorTypeLabel(err)
		l.metrics.IncAttempt("error")
		l.logger.Error("search attempt failed",
			slog.Uint64("run", run),
			slog.Int("attempt", attempt),
			slog.String("error_type", label),
			slog.Any("error", err),
		)
		l.notifier.Send(ctx, fmt.Sprintf("⚠️ Error during search (attempt #%d):\n`%v`", attempt, err))
		return
	}

	l.metrics.IncAttempt(outcome.Kind.String())
	switch outcome.Kind {
	case models.NoResults:
		l.logger.Info("no results",
			slog.Uint64("run", run),
			slog.Int("attempt", attempt),
		)
		if l.notifyNoResults {
			l.notifier.Send(ctx, fmt.Sprintf("🔍 No results yet (attempt #%d)", attempt))
		}
	default:
		l.logger.Warn("unrecognized result page",
			slog.Uint64("run", run),
			slog.Int("attempt", attempt),
		)
		l.notifier.Send(ctx, fmt.Sprintf("❓ Unrecognized result page (attempt #%d), the site layout may have changed", attempt))
	}
}

func (l *Loop) wait(ctx context.Context, base time.Duration) error {
	delay := l.jitter(base)
	l.logger.Info(fmt.Sprintf("Waiting %.1f seconds...", delay.Seconds()))
	return l.sleep(ctx, delay)
}
