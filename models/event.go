package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an append-only audit record emitted at each order transition.
// Business logic never reads events back; they exist for observability.
// OrderID is nullable so pre-order events (e.g. questionnaire abandonment)
// can still be recorded.
type Event struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrderID   *string        `gorm:"type:uuid;index" json:"order_id"`
	Type      string         `gorm:"not null;index" json:"type"`
	Payload   datatypes.JSON `json:"payload"`
	IP        string         `json:"ip"`
	UserAgent string         `json:"user_agent"`
	Referrer  string         `json:"referrer"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "events"
}
