package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// Email sends each message as a plain text mail.
type Email struct {
	addr    string
	auth    smtp.Auth
	from    string
	to      []string
	subject string
	logger  *slog.Logger

	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// EmailOptions configures an Email sink.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Subject  string
	Logger   *slog.Logger
}

// NewEmail returns a sink delivering through the SMTP server in opts.
func NewEmail(opts EmailOptions) *Email {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	subject := opts.Subject
	if subject == "" {
		subject = "Scout notification"
	}
	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	}
	return &Email{
		addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		auth:    auth,
		from:    opts.From,
		to:      opts.To,
		subject: subject,
		logger:  logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Send mails text to every recipient.
func (m *Email) Send(_ context.Context, text string) {
	mail := email.NewEmail()
	mail.From = m.from
	mail.To = m.to
	mail.Subject = m.subject
	mail.Text = []byte(text)

	err := m.send(mail, m.addr, m.auth)
	if err != nil && m.auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = m.send(mail, m.addr, nil)
	}
	if err != nil {
		m.logger.Error("failed to send notification email",
			slog.String("addr", m.addr),
			slog.Any("error", err),
		)
	}
}
