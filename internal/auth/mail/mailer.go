// Package mail delivers transactional messages through an HTTP relay. The
// relay owns templating and SMTP concerns; this package only speaks its JSON
// API. A log-only mailer stands in for the relay during local development.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Mailer sends templated messages to a single recipient.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is the relay's send payload.
type Message struct {
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables,omitempty"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RelayMailer posts messages to an HTTP mail relay, retrying with linear
// backoff on transient failure.
type RelayMailer struct {
	baseURL string
	client  *http.Client
	retries int
	logger  *slog.Logger
}

func NewRelayMailer(baseURL string, timeout time.Duration, retries int, logger *slog.Logger) *RelayMailer {
	return &RelayMailer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		logger:  logger,
	}
}

func (m *RelayMailer) Send(ctx context.Context, msg Message) error {
	var lastErr error

	for attempt := 0; attempt <= m.retries; attempt++ {
		if attempt > 0 {
			m.logger.InfoContext(ctx, "retrying mail send",
				slog.Int("attempt", attempt),
				slog.String("template", msg.Template),
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		if err := m.sendOnce(ctx, msg); err != nil {
			lastErr = err
			m.logger.ErrorContext(ctx, "mail send failed",
				slog.Int("attempt", attempt),
				slog.String("template", msg.Template),
				slog.String("error", err.Error()),
			)
			continue
		}
		return nil
	}

	return fmt.Errorf("mail: send failed after %d attempts: %w", m.retries+1, lastErr)
}

func (m *RelayMailer) sendOnce(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mail: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/email/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail: relay returned status %d", resp.StatusCode)
	}

	var rr relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("mail: decode relay response: %w", err)
	}
	if !rr.Success {
		return fmt.Errorf("mail: relay rejected message: %s", rr.Message)
	}

	return nil
}

// LogMailer writes the message to the log instead of delivering it. Used in
// development when no relay is configured, so OTP codes land in the console.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "mail (not delivered, log mailer)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("template", msg.Template),
		slog.Any("variables", msg.Variables),
	)
	return nil
}

// SendOTPEmail sends the login verification code message.
func SendOTPEmail(ctx context.Context, m Mailer, to, code string, expiry time.Duration) error {
	return m.Send(ctx, Message{
		To:       to,
		Subject:  "Your verification code",
		Template: "login_otp",
		Variables: map[string]string{
			"code":   code,
			"expiry": fmt.Sprintf("%d minutes", int(expiry.Minutes())),
		},
	})
}
