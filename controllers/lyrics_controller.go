package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/models"
	"github.com/birthday-song/birthday-song-api/services"
)

// GenerateLyricsRequest represents the request body for lyrics generation
type GenerateLyricsRequest struct {
	Style string `json:"style" binding:"required"`
}

// UpdateLyricsRequest represents the request body for editing a lyrics variation
type UpdateLyricsRequest struct {
	EditedContent string `json:"editedContent" binding:"required"`
}

// GenerateLyrics handles POST /orders/:id/generate-lyrics - generates a
// fresh batch of lyrics variations. Generation is additive: prior batches
// are retained, and a regeneration resets the order back to lyrics_ready
// no matter how far it had progressed.
func GenerateLyrics(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	var req GenerateLyricsRequest
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

	variations, err := services.GetLyricsService().Generate(order, req.Style)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Lyrics generation failed",
			},
		})
		return
	}

	db := config.GetDB()

	// Written sequentially in index order so the first-variation-selected
	// convention is deterministic.
	for i := range variations {
		if err := db.Create(&variations[i]).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to save lyrics variations",
				},
			})
			return
		}
	}

	order.SelectedStyle = &req.Style
	if models.CanAdvanceStatus(order.Status, models.OrderStatusLyricsReady) {
		order.Status = models.OrderStatusLyricsReady
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

	services.RecordEvent(db, &order.ID, "lyrics_generated", map[string]interface{}{
		"style": req.Style,
		"count": len(variations),
	}, middleware.GetRequestMeta(c))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"lyrics": variations, "order": order},
	})
}

// ListLyrics handles GET /orders/:id/lyrics - returns every lyrics
// variation ever generated for the order, oldest first.
func ListLyrics(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var lyrics []models.LyricsVariation
	if err := db.Where("order_id = ?", order.ID).Order("created_at asc").Find(&lyrics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load lyrics",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"lyrics": lyrics},
	})
}

// UpdateLyrics handles PATCH /orders/:id/lyrics/:lyricsId - stores a
// user-edited override on the variation. Edits never create new rows.
func UpdateLyrics(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	var req UpdateLyricsRequest
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
	var lyrics models.LyricsVariation
	err := db.Where("id = ? AND order_id = ?", c.Param("lyricsId"), order.ID).First(&lyrics).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "LYRICS_NOT_FOUND",
					"message": "Lyrics variation not found",
				},
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to load lyrics variation",
				},
			})
		}
		return
	}

	lyrics.EditedContent = &req.EditedContent
	if err := db.Save(&lyrics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update lyrics variation",
			},
		})
		return
	}

	services.RecordEvent(db, &order.ID, "lyrics_edited", map[string]interface{}{
		"lyrics_id": lyrics.ID,
	}, middleware.GetRequestMeta(c))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"lyrics": lyrics},
	})
}
