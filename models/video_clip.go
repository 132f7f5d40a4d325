package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VideoClip status values. "failed" is never produced by the mock pipeline
// but callers must handle it.
const (
	VideoStatusPending    = "pending"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

// IsTerminalVideoStatus reports whether a clip status admits no further
// transitions.
func IsTerminalVideoStatus(s string) bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// VideoClip is the (at most one live per order) rendered video artifact.
// Its status is mutated exclusively by the generation pipeline, never by
// direct user edit.
type VideoClip struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     string         `gorm:"type:uuid;not null;index" json:"order_id"`
	Order       Order          `gorm:"foreignKey:OrderID" json:"-"`
	Provider    string         `json:"provider"`
	ProviderID  string         `json:"provider_id"`
	PhotoURLs   datatypes.JSON `json:"photo_urls"`
	Style       string         `json:"style"`
	VideoURL    *string        `json:"video_url"` // nil until completion
	Status      string         `gorm:"not null;default:'pending';index" json:"status"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the VideoClip model
func (VideoClip) TableName() string {
	return "video_clips"
}
