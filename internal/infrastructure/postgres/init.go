package postgres

import (
	"log"

	"github.com/LavaJover/shvark-exchange-form/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MustInitDB открывает соединение с базой журнала курсов.
// Схема создается миграциями, AutoMigrate не используется.
func MustInitDB(cfg config.FormDB) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.Dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	return db
}
