package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is the last known RUB/USDT price. Forward converts RUB into USDT by
// division, Reverse is kept for display only.
type Rate struct {
	Forward decimal.Decimal `json:"forward"`
	Reverse decimal.Decimal `json:"reverse"`
}

func (r Rate) Usable() bool {
	return r.Forward.IsPositive()
}

// RateQuery is the amount a rate is requested for. Only the active side's
// amount is sent, the other one stays empty.
type RateQuery struct {
	ID     string
	Seq    uint64
	Side   Side
	Amount decimal.Decimal
}

type RateQuote struct {
	Query     RateQuery
	Rate      Rate
	FetchedAt time.Time
}
