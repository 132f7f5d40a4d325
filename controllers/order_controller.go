package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/models"
	"github.com/birthday-song/birthday-song-api/services"
)

// CreateOrderRequest represents the request body for creating an order
// from a completed questionnaire.
type CreateOrderRequest struct {
	RecipientName     string                 `json:"recipientName" binding:"required"`
	RecipientNickname string                 `json:"recipientNickname"`
	RecipientGender   string                 `json:"recipientGender"`
	RecipientAge      *int                   `json:"recipientAge"`
	Relationship      string                 `json:"relationship"`
	PersonalityTraits []string               `json:"personalityTraits"`
	Hobbies           string                 `json:"hobbies"`
	SpecialMemories   string                 `json:"specialMemories"`
	DesiredTone       string                 `json:"desiredTone"`
	Language          string                 `json:"language"`
	Email             *string                `json:"email"`
	SocialSource      *string                `json:"socialSource"`
	SocialData        map[string]interface{} `json:"socialData"`
	ReferralSource    *string                `json:"referralSource"`
	Questionnaire     map[string]interface{} `json:"questionnaire"`
}

// UpdateOrderRequest represents the request body for partially updating an
// order. All fields are optional; absent fields are left untouched.
type UpdateOrderRequest struct {
	Email            *string                `json:"email"`
	SelectedStyle    *string                `json:"selectedStyle"`
	SelectedLyricsID *string                `json:"selectedLyricsId"`
	SelectedSongID   *string                `json:"selectedSongId"`
	Status           *string                `json:"status"`
	SocialSource     *string                `json:"socialSource"`
	SocialData       map[string]interface{} `json:"socialData"`
}

// CreateOrder handles POST /orders - creates an order from questionnaire answers
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	order := models.Order{
		ID:                uuid.NewString(),
		Email:             req.Email,
		RecipientName:     req.RecipientName,
		RecipientNickname: req.RecipientNickname,
		RecipientGender:   req.RecipientGender,
		RecipientAge:      req.RecipientAge,
		Relationship:      req.Relationship,
		Hobbies:           req.Hobbies,
		SpecialMemories:   req.SpecialMemories,
		DesiredTone:       req.DesiredTone,
		Language:          language,
		SocialSource:      req.SocialSource,
		ReferralSource:    req.ReferralSource,
		Status:            models.OrderStatusQuestionnaireDone,
		UTMData:           middleware.GetUTMData(c),
	}

	if req.PersonalityTraits != nil {
		if raw, err := json.Marshal(req.PersonalityTraits); err == nil {
			order.PersonalityTraits = raw
		}
	}
	if req.SocialData != nil {
		if raw, err := json.Marshal(req.SocialData); err == nil {
			order.SocialData = raw
		}
	}
	if req.Questionnaire != nil {
		if raw, err := json.Marshal(req.Questionnaire); err == nil {
			order.QuestionnaireRaw = raw
		}
	}

	db := config.GetDB()
	if err := db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	services.RecordEvent(db, &order.ID, "order_created", map[string]interface{}{
		"recipient_name": order.RecipientName,
		"language":       order.Language,
	}, middleware.GetRequestMeta(c))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    gin.H{"order": order},
	})
}

// GetOrder handles GET /orders/:id - fetches the order aggregate with all
// of its artifacts.
func GetOrder(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	db := config.GetDB()

	var lyrics []models.LyricsVariation
	db.Where("order_id = ?", order.ID).Order("created_at asc").Find(&lyrics)

	var songs []models.SongVariation
	db.Where("order_id = ?", order.ID).Order("created_at asc").Find(&songs)

	var clips []models.VideoClip
	db.Where("order_id = ?", order.ID).Order("created_at desc").Limit(1).Find(&clips)
	var video *models.VideoClip
	if len(clips) > 0 {
		video = &clips[0]
	}

	var payments []models.Payment
	db.Where("order_id = ?", order.ID).Order("created_at asc").Find(&payments)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":    order,
			"lyrics":   lyrics,
			"songs":    songs,
			"video":    video,
			"payments": payments,
		},
	})
}

// UpdateOrder handles PATCH /orders/:id - partial update of mutable order
// fields. Selected artifact ids must belong to the order; status changes
// must follow the transition rules.
func UpdateOrder(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()

	if req.SelectedLyricsID != nil {
		var count int64
		db.Model(&models.LyricsVariation{}).
			Where("id = ? AND order_id = ?", *req.SelectedLyricsID, order.ID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "LYRICS_NOT_FOUND",
					"message": "Lyrics variation does not belong to this order",
				},
			})
			return
		}
		order.SelectedLyricsID = req.SelectedLyricsID
	}

	if req.SelectedSongID != nil {
		var count int64
		db.Model(&models.SongVariation{}).
			Where("id = ? AND order_id = ?", *req.SelectedSongID, order.ID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SONG_NOT_FOUND",
					"message": "Song variation does not belong to this order",
				},
			})
			return
		}
		order.SelectedSongID = req.SelectedSongID
	}

	if req.Status != nil {
		if !models.IsValidOrderStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Unknown order status",
					"details": *req.Status,
				},
			})
			return
		}
		if !models.CanAdvanceStatus(order.Status, *req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid status transition",
					"details": order.Status + " -> " + *req.Status,
				},
			})
			return
		}
		order.Status = *req.Status
	}

	if req.Email != nil {
		order.Email = req.Email
	}
	if req.SelectedStyle != nil {
		order.SelectedStyle = req.SelectedStyle
	}
	if req.SocialSource != nil {
		order.SocialSource = req.SocialSource
	}
	if req.SocialData != nil {
		if raw, err := json.Marshal(req.SocialData); err == nil {
			order.SocialData = raw
		}
	}

	if err := db.Save(order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"order": order},
	})
}
