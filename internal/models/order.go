package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is the merchant's record of a paid order, written after a verified
// success or through the manual order-save route. Status is one of the
// domain.OrderStatus values; GatewayState keeps the gateway's raw state.
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderID       string         `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	AmountMinor   int64          `gorm:"not null" json:"amount_minor"`
	Currency      string         `gorm:"size:3;default:'INR'" json:"currency"`
	Status        string         `gorm:"size:20;not null;index" json:"status"`
	GatewayState  string         `gorm:"size:32" json:"gateway_state"`
	Source        string         `gorm:"size:20;not null" json:"source"`
	TransactionID string         `gorm:"size:128" json:"transaction_id,omitempty"`
	CustomerID    string         `gorm:"size:64;index" json:"customer_id,omitempty"`
	CustomerName  string         `gorm:"size:255" json:"customer_name,omitempty"`
	CustomerEmail string         `gorm:"size:255" json:"customer_email,omitempty"`
	CustomerPhone string         `gorm:"size:32" json:"customer_phone,omitempty"`
	VerifiedAt    *time.Time     `json:"verified_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}
