package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(topic string, msgs ...Message) error
}

type ConversionDirection string

const (
	DirectionLeftToRight ConversionDirection = "rub_to_usdt"
	DirectionRightToLeft ConversionDirection = "usdt_to_rub"
	// правое значение пересчитано от минимума левого
	DirectionFloor ConversionDirection = "floor"
)

// QuoteEvent describes one completed conversion between the two fields.
type QuoteEvent struct {
	SessionID   string              `json:"session_id"`
	Direction   ConversionDirection `json:"direction"`
	RUB         decimal.Decimal     `json:"rub"`
	USDT        decimal.Decimal     `json:"usdt"`
	ForwardRate decimal.Decimal     `json:"forward_rate"`
	At          time.Time           `json:"at"`
}

type QuotePublisher interface {
	PublishQuote(event QuoteEvent) error
}
