package models

import (
	"time"

	"gorm.io/gorm"
)

// SongVariation is one generated audio rendition of the selected lyrics.
// Created in batches of 2-3 once lyrics exist and one is selected.
type SongVariation struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     string         `gorm:"type:uuid;not null;index" json:"order_id"`
	Order       Order          `gorm:"foreignKey:OrderID" json:"-"`
	Provider    string         `json:"provider"`
	ProviderID  string         `json:"provider_id"`
	StylePrompt string         `json:"style_prompt"`
	AudioURL    string         `gorm:"not null" json:"audio_url"`
	PreviewURL  string         `gorm:"not null" json:"preview_url"`
	Duration    int            `json:"duration"` // seconds
	Selected    bool           `gorm:"not null;default:false" json:"selected"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the SongVariation model
func (SongVariation) TableName() string {
	return "song_variations"
}
