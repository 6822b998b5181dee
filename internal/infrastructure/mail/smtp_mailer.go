package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer delivers plain-text messages through an SMTP relay.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig, from string) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: SMTP_HOST is required for the smtp driver")
	}
	if from == "" {
		return nil, errors.New("mail: MAIL_FROM is required for the smtp driver")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		from: from,
		auth: auth,
		send: smtp.SendMail,
	}, nil
}

// Send blocks until the relay accepts the message. net/smtp has no context
// support, so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg domain.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.addr, m.auth, m.from, []string{msg.To}, buildMessage(m.from, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func buildMessage(from string, msg domain.Mail) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + msg.To,
		"Subject: " + sanitizeHeader(msg.Subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		msg.Text,
	}, "\r\n"))
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
