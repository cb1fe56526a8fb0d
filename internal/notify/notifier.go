// Package notify delivers outgoing mail.
package notify

import (
	"errors"
	"fmt"

	"github.com/Baaaki/yamdb/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier sends a plain-text message to one recipient.
type Notifier interface {
	Send(to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMTPNotifier struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (n *SMTPNotifier) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogNotifier writes messages to the application log instead of sending them.
type LogNotifier struct{}

func (LogNotifier) Send(to, subject, body string) error {
	logger.Log.Info("Outgoing mail",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

var ErrNoTransport = errors.New("notify: SMTP host is required in production")

// New picks SMTP delivery when a host is configured. Without one, messages
// are logged, except in production where confirmation codes must not leak
// into logs.
func New(cfg SMTPConfig, production bool) (Notifier, error) {
	if cfg.Host != "" {
		return NewSMTPNotifier(cfg), nil
	}
	if production {
		return nil, ErrNoTransport
	}
	return LogNotifier{}, nil
}
