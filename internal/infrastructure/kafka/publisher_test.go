package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var (
	_ domain.QuotePublisher = (*KafkaPublisher)(nil)
	_ domain.PublisherPort  = (*KafkaPublisher)(nil)
	_ domain.QuotePublisher = NopPublisher{}
)

func TestKafkaPublisher_PublishQuote(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, DefaultQuoteTopic)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	err := p.PublishQuote(domain.QuoteEvent{
		SessionID:   "sess-1",
		Direction:   domain.DirectionLeftToRight,
		RUB:         decimal.NewFromInt(10000),
		USDT:        decimal.RequireFromString("103.659169"),
		ForwardRate: decimal.RequireFromString("96.47"),
		At:          at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "sess-1", string(msg.Key))
	assert.Equal(t, DefaultQuoteTopic, msg.Topic)
	assert.Equal(t, at, msg.Time)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "rub_to_usdt", got["direction"])
	assert.Equal(t, "10000", got["rub"])
	assert.Equal(t, "96.47", got["forward_rate"])
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newPublisher(&fakeWriter{err: boom}, "quotes")

	err := p.PublishQuote(domain.QuoteEvent{SessionID: "s"})
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaPublisher_DefaultTopic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewKafkaPublisher(Config{Brokers: []string{"localhost:9092"}, Username: "u", Password: "p"}, logger)
	assert.Equal(t, DefaultQuoteTopic, p.topic)

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.NotNil(t, w.Transport)
	require.NoError(t, p.Close())
}
