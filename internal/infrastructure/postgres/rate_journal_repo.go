package postgres

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/LavaJover/shvark-exchange-form/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-exchange-form/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultRateJournalRepository struct {
	DB *gorm.DB
}

func NewDefaultRateJournalRepository(db *gorm.DB) *DefaultRateJournalRepository {
	return &DefaultRateJournalRepository{DB: db}
}

func (r *DefaultRateJournalRepository) Record(ctx context.Context, sessionID string, quote domain.RateQuote) error {
	model := mappers.ToGORMRateSnapshot(uuid.New().String(), sessionID, quote)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to record rate snapshot: %w", err)
	}
	return nil
}

// Recent возвращает последние limit курсов сессии, новые первыми
func (r *DefaultRateJournalRepository) Recent(ctx context.Context, sessionID string, limit int) ([]domain.RateQuote, error) {
	var snapshots []models.RateSnapshotModel
	if err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("fetched_at DESC").
		Limit(limit).
		Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to load rate snapshots: %w", err)
	}

	quotes := make([]domain.RateQuote, 0, len(snapshots))
	for i := range snapshots {
		quotes = append(quotes, mappers.ToDomainRateQuote(&snapshots[i]))
	}
	return quotes, nil
}
