package repository

import (
	"context"
	"errors"

	"paybridge/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyAccrued is returned when the order already earned its points.
var ErrAlreadyAccrued = errors.New("reward already accrued for order")

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// AccrueOnce records the entry and credits the customer's account in one
// transaction. A second call for the same order returns ErrAlreadyAccrued
// and leaves the balance untouched.
func (r *RewardRepository) AccrueOnce(ctx context.Context, entry *models.RewardEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RewardEntry{}).Where("order_id = ?", entry.OrderID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyAccrued
		}
		if err := tx.Create(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyAccrued
			}
			return err
		}
		acct := models.RewardAccount{CustomerID: entry.CustomerID, Points: entry.Points}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"points": gorm.Expr("points + ?", entry.Points), "updated_at": gorm.Expr("CURRENT_TIMESTAMP")}),
		}).Create(&acct).Error
	})
}

func (r *RewardRepository) GetAccount(ctx context.Context, customerID string) (*models.RewardAccount, error) {
	var a models.RewardAccount
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *RewardRepository) ListEntries(ctx context.Context, customerID string, limit int) ([]models.RewardEntry, error) {
	var list []models.RewardEntry
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
