package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment status values.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is one checkout attempt against an order. An order may carry
// several (retries); only a verified webhook callback moves one to
// "completed".
type Payment struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         string         `gorm:"type:uuid;not null;index" json:"order_id"`
	Order           Order          `gorm:"foreignKey:OrderID" json:"-"`
	Tier            string         `gorm:"not null" json:"tier"`
	AmountCents     int            `gorm:"not null" json:"amount_cents"`
	Currency        string         `gorm:"not null;default:'usd'" json:"currency"`
	SessionID       string         `gorm:"not null;uniqueIndex" json:"session_id"` // gateway checkout session
	PaymentIntentID *string        `json:"payment_intent_id"`
	Status          string         `gorm:"not null;default:'pending';index" json:"status"`
	PaidAt          *time.Time     `json:"paid_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
