package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RateSnapshotModel struct {
	ID        string `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	RequestID string
	Seq       uint64
	Side      string
	Amount    decimal.Decimal `gorm:"type:numeric"`
	Forward   decimal.Decimal `gorm:"type:numeric"`
	Reverse   decimal.Decimal `gorm:"type:numeric"`
	FetchedAt time.Time
	CreatedAt time.Time
}

func (RateSnapshotModel) TableName() string {
	return "rate_snapshots"
}
