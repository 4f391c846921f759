package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	To      string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer sends through the SendGrid v3 mail API.
type SendGridMailer struct {
	apiKey    string
	endpoint  string
	fromEmail string
	fromName  string
	timeout   time.Duration
}

func NewSendGridMailer(apiKey string, baseURL string, fromEmail string, fromName string, timeout time.Duration) *SendGridMailer {
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SendGridMailer{
		apiKey:    apiKey,
		endpoint:  strings.TrimRight(baseURL, "/") + "/v3/mail/send",
		fromEmail: fromEmail,
		fromName:  fromName,
		timeout:   timeout,
	}
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 500 {
		msg = msg[:500] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("sendgrid: recipient required")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	email := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.fromEmail),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		"",
	)

	// the client carries the request body, so each send gets its own
	client := sendgrid.NewSendClient(m.apiKey)
	client.BaseURL = m.endpoint

	resp, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("email not delivered, no mail provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
