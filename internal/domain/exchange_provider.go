// internal/domain/exchange_provider.go
package domain

import "context"

type ExchangeRateProvider interface {
	GetRate(ctx context.Context, query RateQuery) (Rate, error)
	GetName() string
}
