package models

import (
	"time"

	"gorm.io/gorm"
)

// LyricsVariation is one generated set of lyrics offered for user selection.
// Variations are created in batches of 2-3; the first variation of each
// batch is marked selected by convention. Rows are never deleted — user
// edits land in EditedContent on the same row.
type LyricsVariation struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       string         `gorm:"type:uuid;not null;index" json:"order_id"`
	Order         Order          `gorm:"foreignKey:OrderID" json:"-"`
	Model         string         `json:"model"` // generating model identifier
	StyleVariant  string         `json:"style_variant"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	EditedContent *string        `gorm:"type:text" json:"edited_content"`
	Selected      bool           `gorm:"not null;default:false" json:"selected"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the LyricsVariation model
func (LyricsVariation) TableName() string {
	return "lyrics_variations"
}
