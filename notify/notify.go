// Package notify delivers scout messages to people. Delivery is best effort:
// sinks log their failures and never return them.
package notify

import (
	"context"
	"log/slog"
)

// Sink accepts a message for delivery.
type Sink interface {
	Send(ctx context.Context, text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, text string)

func (f SinkFunc) Send(ctx context.Context, text string) {
	f(ctx, text)
}

// Multi sends every message to each sink in order.
type Multi []Sink

func (m Multi) Send(ctx context.Context, text string) {
	for _, sink := range m {
		if sink != nil {
			sink.Send(ctx, text)
		}
	}
}

// LogSink writes messages to a logger.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) Send(ctx context.Context, text string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", slog.String("text", text))
}
