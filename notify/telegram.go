package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTelegramURL is the Bot API endpoint.
const DefaultTelegramURL = "https://api.telegram.org"

// Telegram posts messages to a chat through the Bot API.
type Telegram struct {
	client *resty.Client
	token  string
	chatID string
	logger *slog.Logger
}

// TelegramOptions configures a Telegram sink.
type TelegramOptions struct {
	BaseURL string
	Token   string
	ChatID  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewTelegram returns a sink for opts.ChatID.
func NewTelegram(opts TelegramOptions) *Telegram {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &Telegram{
		client: client,
		token:  opts.Token,
		chatID: opts.ChatID,
		logger: logger,
	}
}

// Send posts text as a Markdown message.
func (t *Telegram) Send(ctx context.Context, text string) {
	res, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		t.logger.Error("failed to send telegram message", slog.Any("error", err))
		return
	}
	if !res.IsSuccess() {
		t.logger.Error("telegram api error",
			slog.Int("status", res.StatusCode()),
			slog.String("body", res.String()),
		)
	}
}
