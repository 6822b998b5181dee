// Package mail holds the outbound mail drivers selected by MAIL_DRIVER.
package mail

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/milkmix/farm-backend/internal/core/ports"
)

const (
	DriverLog   = "log"
	DriverSMTP  = "smtp"
	DriverKafka = "kafka"
)

// Config selects and configures a driver.
type Config struct {
	Driver string
	From   string

	SMTP  SMTPConfig
	Kafka KafkaConfig
}

// New returns the Mailer for cfg.Driver. An empty driver means DriverLog.
func New(cfg Config, log zerolog.Logger) (ports.Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverLog:
		return NewLogMailer(log), nil
	case DriverSMTP:
		return NewSMTPMailer(cfg.SMTP, cfg.From)
	case DriverKafka:
		return NewKafkaMailer(cfg.Kafka, log)
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}
