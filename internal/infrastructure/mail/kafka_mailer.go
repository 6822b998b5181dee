package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

// KafkaConfig holds the producer settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer publishes every message as a JSON event for a downstream mail
// service. Writes are synchronous so a broker failure reaches the caller.
type KafkaMailer struct {
	writer messageWriter
	log    zerolog.Logger
	now    func() time.Time
}

func NewKafkaMailer(cfg KafkaConfig, log zerolog.Logger) (*KafkaMailer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("mail: KAFKA_BROKERS and KAFKA_MAIL_TOPIC are required for the kafka driver")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		MaxAttempts:            3,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return newKafkaMailer(w, log), nil
}

func newKafkaMailer(w messageWriter, log zerolog.Logger) *KafkaMailer {
	return &KafkaMailer{
		writer: w,
		log:    log.With().Str("component", "mail").Logger(),
		now:    time.Now,
	}
}

// Send keys the event by recipient so one inbox keeps its order.
func (m *KafkaMailer) Send(ctx context.Context, msg domain.Mail) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail event: %w", err)
	}

	err = m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Time:  m.now(),
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish mail event: %w", err)
	}

	m.log.Debug().Str("to", msg.To).Str("kind", msg.Kind).Msg("mail event published")
	return nil
}

func (m *KafkaMailer) Close() error {
	return m.writer.Close()
}
