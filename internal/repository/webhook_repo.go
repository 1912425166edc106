package repository

import (
	"context"

	"paybridge/internal/models"

	"gorm.io/gorm"
)

type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(ctx context.Context, e *models.WebhookEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}
