package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order status values, in lifecycle order. "draft" exists for
// forward-compatibility with a pre-questionnaire save feature but is never
// assigned by any current operation — orders are created directly at
// "questionnaire_done".
const (
	OrderStatusDraft             = "draft"
	OrderStatusQuestionnaireDone = "questionnaire_done"
	OrderStatusLyricsReady       = "lyrics_ready"
	OrderStatusSongReady         = "song_ready"
	OrderStatusPreviewPlayed     = "preview_played"
	OrderStatusPaid              = "paid"
	OrderStatusCompleted         = "completed"
)

// statusRank maps each status to its position in the forward sequence.
var statusRank = map[string]int{
	OrderStatusDraft:             0,
	OrderStatusQuestionnaireDone: 1,
	OrderStatusLyricsReady:       2,
	OrderStatusSongReady:         3,
	OrderStatusPreviewPlayed:     4,
	OrderStatusPaid:              5,
	OrderStatusCompleted:         6,
}

// IsValidOrderStatus reports whether s is one of the defined status values.
func IsValidOrderStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// StatusRank returns the position of a status in the lifecycle sequence,
// or -1 for an unknown status.
func StatusRank(s string) int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// StatusAtLeast reports whether status has reached (or passed) target in the
// lifecycle sequence. Unknown statuses never satisfy any target.
func StatusAtLeast(status, target string) bool {
	sr, ok := statusRank[status]
	if !ok {
		return false
	}
	tr, ok := statusRank[target]
	if !ok {
		return false
	}
	return sr >= tr
}

// CanAdvanceStatus reports whether an order may move from one status to
// another. Transitions are forward-only, with one documented exception:
// user-initiated lyrics regeneration resets any order back to
// "lyrics_ready".
func CanAdvanceStatus(from, to string) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	if to == OrderStatusLyricsReady {
		// Regeneration reset: allowed from any status.
		return true
	}
	return tr > fr
}

// Order is the aggregate root for one customer's song-creation journey.
// It is created once at questionnaire submission and mutated by every
// subsequent step; no operation ever hard-deletes it.
type Order struct {
	ID                string         `gorm:"type:uuid;primaryKey" json:"id"`
	Email             *string        `json:"email"`
	RecipientName     string         `gorm:"not null" json:"recipient_name"`
	RecipientNickname string         `json:"recipient_nickname"`
	RecipientGender   string         `json:"recipient_gender"`
	RecipientAge      *int           `json:"recipient_age"`
	Relationship      string         `json:"relationship"`
	PersonalityTraits datatypes.JSON `json:"personality_traits"` // free-form list from the questionnaire
	Hobbies           string         `json:"hobbies"`
	SpecialMemories   string         `gorm:"type:text" json:"special_memories"`
	DesiredTone       string         `json:"desired_tone"`
	QuestionnaireRaw  datatypes.JSON `json:"questionnaire_raw"` // opaque blob, stored exactly as submitted
	Language          string         `gorm:"not null;default:'en'" json:"language"`
	SelectedStyle     *string        `json:"selected_style"`
	SelectedLyricsID  *string        `gorm:"type:uuid;index" json:"selected_lyrics_id"` // must reference a LyricsVariation of this order
	SelectedSongID    *string        `gorm:"type:uuid;index" json:"selected_song_id"`   // must reference a SongVariation of this order
	SocialSource      *string        `json:"social_source"`
	SocialData        datatypes.JSON `json:"social_data"`
	Status            string         `gorm:"not null;default:'questionnaire_done';index" json:"status"`
	ReferralSource    *string        `json:"referral_source"`
	UTMData           datatypes.JSON `json:"utm_data"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
