package mail

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"

	"coding_documenty/internal/platform/config"
)

// Sender delivers a plain-text message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewSender picks SMTP when a host is configured and the log sender otherwise.
func NewSender(cfg *config.Config) Sender {
	if cfg.SMTPHost == "" {
		log.Println("WARN: SMTP_HOST not set, outgoing mail will only be logged.")
		return LogSender{}
	}
	return &SMTPSender{
		Addr:     net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		Host:     cfg.SMTPHost,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

type SMTPSender struct {
	Addr     string
	Host     string
	Username string
	Password string
	From     string
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	msg := buildMessage(s.From, to, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.Addr, auth, s.From, []string{to}, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender writes messages to the process log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	log.Printf("INFO: mail to=%s subject=%q\n%s", to, subject, body)
	return nil
}
