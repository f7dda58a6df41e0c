package mappers

import (
	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/LavaJover/shvark-exchange-form/internal/infrastructure/postgres/models"
)

func ToDomainRateQuote(model *models.RateSnapshotModel) domain.RateQuote {
	return domain.RateQuote{
		Query: domain.RateQuery{
			ID:     model.RequestID,
			Seq:    model.Seq,
			Side:   domain.Side(model.Side),
			Amount: model.Amount,
		},
		Rate: domain.Rate{
			Forward: model.Forward,
			Reverse: model.Reverse,
		},
		FetchedAt: model.FetchedAt,
	}
}

func ToGORMRateSnapshot(id, sessionID string, quote domain.RateQuote) *models.RateSnapshotModel {
	return &models.RateSnapshotModel{
		ID:        id,
		SessionID: sessionID,
		RequestID: quote.Query.ID,
		Seq:       quote.Query.Seq,
		Side:      string(quote.Query.Side),
		Amount:    quote.Query.Amount,
		Forward:   quote.Rate.Forward,
		Reverse:   quote.Rate.Reverse,
		FetchedAt: quote.FetchedAt,
	}
}
