package repository

import (
	"context"

	"paybridge/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Upsert inserts the order or, when order_id already exists, overwrites its
// payment fields. Customer fields are only replaced when the new row has them.
func (r *OrderRepository) Upsert(ctx context.Context, o *models.Order) error {
	cols := []string{"amount_minor", "status", "gateway_state", "source", "transaction_id", "verified_at", "updated_at"}
	if o.CustomerID != "" {
		cols = append(cols, "customer_id", "customer_name", "customer_email", "customer_phone")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(o).Error
}

func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns orders newest first, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Order, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Order
	err := r.db.WithContext(ctx).Scopes(filter).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
