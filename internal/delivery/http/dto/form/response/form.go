package response

import (
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type RateSnapshot struct {
	RequestID string      `json:"request_id"`
	Side      domain.Side `json:"side"`
	Amount    string      `json:"amount"`
	Forward   string      `json:"forward"`
	Reverse   string      `json:"reverse"`
	FetchedAt time.Time   `json:"fetched_at"`
}

type RateHistory struct {
	SessionID string         `json:"session_id"`
	Rates     []RateSnapshot `json:"rates"`
}

func NewRateHistory(sessionID string, quotes []domain.RateQuote) RateHistory {
	rates := make([]RateSnapshot, 0, len(quotes))
	for _, q := range quotes {
		rates = append(rates, RateSnapshot{
			RequestID: q.Query.ID,
			Side:      q.Query.Side,
			Amount:    q.Query.Amount.String(),
			Forward:   q.Rate.Forward.String(),
			Reverse:   q.Rate.Reverse.String(),
			FetchedAt: q.FetchedAt,
		})
	}
	return RateHistory{SessionID: sessionID, Rates: rates}
}
