// Package mailer delivers transactional e-mails such as OTP codes.
package mailer

import (
	"ben-bank-api/logger"
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// Mailer sends a plain-text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail over implicit TLS (port 465), the way Gmail expects.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := newMessage(m.cfg.From, to, subject, body)
	if err != nil {
		return err
	}

	port, err := strconv.Atoi(m.cfg.Port)
	if err != nil {
		return fmt.Errorf("invalid smtp port %q: %w", m.cfg.Port, err)
	}

	opts := []mail.Option{mail.WithPort(port), mail.WithSSL()}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("could not create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("could not send e-mail: %w", err)
	}
	return nil
}

// newMessage builds a multipart/alternative message with a text and an
// HTML part.
func newMessage(from, to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	msg.AddAlternativeString(mail.TypeTextHTML, "<b>"+strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")+"</b>")
	return msg, nil
}

// LogMailer only logs messages. It is used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	logger.Log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("SMTP not configured, e-mail not sent")
	return nil
}
