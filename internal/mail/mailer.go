// Package mail dispatches the outbound verification email over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/samber/oops"

	"github.com/kayo09/mood-tracker/internal/auth"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username when empty, matching the common
	// provider requirement that the sender match the account.
	From string
}

// sendFunc matches smtp.SendMail, injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer implements auth.Mailer over SMTP with STARTTLS.
type SMTPMailer struct {
	cfg    Config
	send   sendFunc
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg Config, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("mail host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, logger: logger}, nil
}

// SendVerification delivers the verification link to the address.
// smtp.SendMail negotiates STARTTLS when the server advertises it.
func (m *SMTPMailer) SendVerification(ctx context.Context, email, link string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_FAILED").Wrap(err)
	}

	msg := buildVerificationMessage(m.cfg.From, email, link)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var a smtp.Auth
	if m.cfg.Username != "" {
		a = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, a, m.cfg.From, []string{email}, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "smtp send").
			With("host", m.cfg.Host).
			Wrap(err)
	}

	m.logger.Info("verification email sent", "to", email)
	return nil
}

// buildVerificationMessage renders the full RFC 5322 message including
// headers and the HTML body embedding the verification link.
func buildVerificationMessage(from, to, link string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Verify Your Email\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("<p>Thank you for registering!</p>\r\n")
	b.WriteString("<p>Click the link below to verify your email:</p>\r\n")
	fmt.Fprintf(&b, "<a href=%q>%s</a>\r\n", link, link)
	return []byte(b.String())
}

// Compile-time interface check.
var _ auth.Mailer = (*SMTPMailer)(nil)
