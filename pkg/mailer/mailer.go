package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/smtp"
	"strings"

	"grievance-portal/pkg/config"
)

var ErrNoRecipients = errors.New("no recipients")

type Mailer interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  config.SMTPConfig
	send sendFunc
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// New returns an SMTP mailer, or a log-only mailer outside production when
// SMTP is not configured.
func New(cfg *config.Config) Mailer {
	if !cfg.SMTP.Enabled() && !cfg.IsProduction() {
		log.Println("[WARN] SMTP not configured, emails will only be logged")
		return LogMailer{}
	}
	return NewSMTPMailer(cfg.SMTP)
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := BuildMessage(m.cfg.Sender, to, subject, html)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.Sender, to, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func BuildMessage(from string, to []string, subject, html string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		html,
	}, "\r\n"))
}

type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	log.Printf("[INFO] Email (not sent) to=%s subject=%q", strings.Join(to, ","), subject)
	return nil
}
