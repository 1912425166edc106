package models

import "time"

// WebhookEvent keeps the raw body of an inbound gateway callback for later inspection.
type WebhookEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Provider    string    `gorm:"size:50;not null;index" json:"provider"`
	RequestID   string    `gorm:"size:64" json:"request_id"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	Body        string    `gorm:"type:text" json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
