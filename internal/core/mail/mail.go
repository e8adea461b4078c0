// Package mail implements domain.Mailer over the Resend HTTP API, SMTP, or
// the log (development).
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"

	"github.com/duynhne/poker-service/config"
	"github.com/duynhne/poker-service/internal/core/domain"
)

const resendEndpoint = "https://api.resend.com/emails"

// New returns the sender selected by cfg.Provider.
func New(cfg config.EmailConfig) (domain.Mailer, error) {
	switch cfg.Provider {
	case config.EmailResend:
		return NewResendSender(cfg.FromEmail, cfg.ResendAPIKey), nil
	case config.EmailSMTP:
		return NewSMTPSender(cfg), nil
	case config.EmailLog, "":
		return LogSender{}, nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendSender delivers mail through the Resend HTTP API.
type ResendSender struct {
	from     string
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewResendSender creates a ResendSender.
func NewResendSender(from, apiKey string) *ResendSender {
	return &ResendSender{
		from:     from,
		apiKey:   apiKey,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts msg to the Resend emails endpoint.
func (s *ResendSender) Send(ctx context.Context, msg domain.Message) error {
	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}
	return nil
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	cfg config.EmailConfig
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers msg over SMTP with PLAIN auth when a user is configured.
func (s *SMTPSender) Send(_ context.Context, msg domain.Message) error {
	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort

	body := msg.HTML
	contentType := "text/html"
	if body == "" {
		body = msg.Text
		contentType = "text/plain"
	}

	raw := "From: " + s.cfg.FromEmail + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: " + contentType + "; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{msg.To}, []byte(raw)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes messages to the context logger instead of sending them.
type LogSender struct{}

// Send logs msg instead of delivering it.
func (LogSender) Send(ctx context.Context, msg domain.Message) error {
	zerolog.Ctx(ctx).Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("Email not sent (log provider)")
	return nil
}
