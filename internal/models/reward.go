package models

import (
	"time"

	"gorm.io/gorm"
)

type RewardAccount struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CustomerID string         `gorm:"size:64;uniqueIndex;not null" json:"customer_id"`
	Points     int64          `gorm:"not null;default:0" json:"points"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RewardAccount) TableName() string {
	return "reward_accounts"
}

// RewardEntry records points granted for one order. The unique order_id keeps accrual at most once per order.
type RewardEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CustomerID  string    `gorm:"size:64;not null;index" json:"customer_id"`
	OrderID     string    `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	Points      int64     `gorm:"not null" json:"points"`
	AmountMinor int64     `gorm:"not null" json:"amount_minor"`
	CreatedAt   time.Time `json:"created_at"`
}

func (RewardEntry) TableName() string {
	return "reward_entries"
}
