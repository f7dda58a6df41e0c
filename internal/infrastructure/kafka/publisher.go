package kafka

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const DefaultQuoteTopic = "exchange-form-quotes"

type Config struct {
	Brokers    []string
	Topic      string
	Username   string
	Password   string
	TLSEnabled bool
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher отправляет события пересчета формы в kafka.
// Запись асинхронная, ошибки доставки только логируются.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	now     func() time.Time
}

func NewKafkaPublisher(cfg Config, logger *slog.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultQuoteTopic
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.LeastBytes{},
		Async:    true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to deliver quote events", "count", len(messages), "error", err)
			}
		},
	}

	if cfg.Username != "" || cfg.TLSEnabled {
		transport := &kafka.Transport{}
		if cfg.Username != "" {
			transport.SASL = plain.Mechanism{
				Username: cfg.Username,
				Password: cfg.Password,
			}
		}
		if cfg.TLSEnabled {
			transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		w.Transport = transport
	}

	return newPublisher(w, topic)
}

func newPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		topic:   topic,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

func (k *KafkaPublisher) Publish(topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	ts := k.now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  ts,
			Topic: topic,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()
	return k.writer.WriteMessages(ctx, km...)
}

// PublishQuote публикует событие с ключом = id сессии, чтобы события
// одной формы попадали в одну партицию
func (k *KafkaPublisher) PublishQuote(event domain.QuoteEvent) error {
	v, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal quote event: %w", err)
	}

	if err := k.Publish(k.topic, domain.Message{Key: []byte(event.SessionID), Value: v}); err != nil {
		return fmt.Errorf("failed to publish quote event: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NopPublisher используется, когда брокеры не настроены
type NopPublisher struct{}

func (NopPublisher) Publish(string, ...domain.Message) error { return nil }

func (NopPublisher) PublishQuote(domain.QuoteEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
