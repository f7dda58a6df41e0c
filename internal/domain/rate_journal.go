package domain

import "context"

// RateJournal keeps an audit trail of every rate the form applied.
type RateJournal interface {
	Record(ctx context.Context, sessionID string, quote RateQuote) error
}

// RateHistory reads back what a RateJournal recorded.
type RateHistory interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]RateQuote, error)
}
