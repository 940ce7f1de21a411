// Package email provides subscription email delivery via SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/notifications"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultSMTPPort = 587
	dialTimeout     = 10 * time.Second
)

// Config holds email sender configuration.
type Config struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
	// RateLimit caps messages per second. Zero or less means unlimited.
	RateLimit float64
}

// Sender implements notifications.Sender via SMTP.
type Sender struct {
	config  Config
	auth    smtp.Auth
	limiter *rate.Limiter
	now     func() time.Time
}

// NewSender validates config and creates the sender. Host and from address
// are only required when sending is enabled.
func NewSender(config Config) (*Sender, error) {
	if config.Enabled {
		if config.SMTPHost == "" {
			return nil, errors.New("email sender: SMTP host is required when enabled")
		}
		if config.FromAddress == "" {
			return nil, errors.New("email sender: from address is required when enabled")
		}
	}

	if config.SMTPPort == 0 {
		config.SMTPPort = defaultSMTPPort
	}

	var auth smtp.Auth
	if config.SMTPUser != "" && config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", config.SMTPUser, config.SMTPPassword, config.SMTPHost)
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	slog.Info("email sender configured",
		"enabled", config.Enabled,
		"smtp_host", config.SMTPHost,
		"smtp_port", config.SMTPPort,
		"from_address", config.FromAddress,
		"rate_limit", config.RateLimit,
	)

	return &Sender{
		config:  config,
		auth:    auth,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}, nil
}

// Send delivers one HTML email. A disabled sender drops the message and
// returns notifications.ErrSenderDisabled.
func (s *Sender) Send(ctx context.Context, msg notifications.Message) error {
	if !s.config.Enabled {
		slog.Warn("email sender disabled, dropping message", "subject", msg.Subject)
		return notifications.ErrSenderDisabled
	}

	if msg.To == "" {
		return errors.New("no recipient")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	if err := s.deliver(ctx, extractEmail(msg.To), s.buildMessage(msg)); err != nil {
		return err
	}

	slog.Debug("email delivered",
		"to", msg.To,
		"subject", msg.Subject,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Sender) buildMessage(msg notifications.Message) []byte {
	headers := [][2]string{
		{"From", s.config.FromAddress},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", s.now().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(s.config.FromAddress))},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="utf-8"`},
	}

	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)

	return []byte(b.String())
}

// deliver runs one SMTP session, upgrading to TLS when the server offers it.
func (s *Sender) deliver(ctx context.Context, recipient string, msg []byte) error {
	addr := net.JoinHostPort(s.config.SMTPHost, strconv.Itoa(s.config.SMTPPort))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(extractEmail(s.config.FromAddress)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("rcpt to %s: %w", recipient, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

// extractEmail returns the bare address of "Name <addr>" forms and the
// input unchanged when it does not parse.
func extractEmail(address string) string {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return address
	}
	return parsed.Address
}

func senderDomain(from string) string {
	addr := extractEmail(from)
	if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return "localhost"
}
