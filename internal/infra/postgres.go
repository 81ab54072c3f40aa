package infra

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rightmycv/internal/models/db_models"
)

func InitPostgresql(dsn string, log *zap.Logger) (*gorm.DB, error) {
	connectionPool, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := connectionPool.AutoMigrate(
		&db_models.Account{},
		&db_models.Plan{},
		&db_models.Subscription{},
		&db_models.Resume{},
	); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// at most one active subscription per user
	if err := connectionPool.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_subscriptions_active_user
		ON subscriptions (user_id) WHERE status = 'active' AND deleted_at IS NULL`).Error; err != nil {
		return nil, fmt.Errorf("create active subscription index: %w", err)
	}

	log.Info("connected to postgres")
	return connectionPool, nil
}

func ClosePostgresql(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("get postgres handle", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("close postgres", zap.Error(err))
	} else {
		log.Info("postgres connection closed")
	}
}
