// Package mailer sends plain-text notification emails over SMTP.
package mailer

import (
	"fmt"

	"github.com/go-gomail/gomail"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/config"
)

type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	from   string
	sender Sender
}

// New returns an SMTP mailer, or a mailer that only logs when SMTP is not configured.
func New(cfg *config.Config) *SMTPMailer {
	if !cfg.SMTPEnabled() {
		return &SMTPMailer{from: cfg.SMTPFrom}
	}
	return &SMTPMailer{
		from:   cfg.SMTPFrom,
		sender: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func NewWithSender(from string, sender Sender) *SMTPMailer {
	return &SMTPMailer{from: from, sender: sender}
}

func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	if m.sender == nil {
		log.WithFields(log.Fields{"to": to, "subject": subject}).Debug("SMTP disabled, email skipped")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}
