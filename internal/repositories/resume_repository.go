package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"rightmycv/internal/models/db_models"
)

type ResumeRepository interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db_models.Resume{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
