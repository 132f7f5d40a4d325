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

// GenerateSongsRequest represents the request body for song generation
type GenerateSongsRequest struct {
	LyricsID string `json:"lyricsId" binding:"required"`
}

// GenerateSongs handles POST /orders/:id/generate-songs - renders a batch
// of song variations from one of the order's lyrics variations.
func GenerateSongs(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	var req GenerateSongsRequest
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

	// The source lyrics must belong to this order.
	var lyrics models.LyricsVariation
	err := db.Where("id = ? AND order_id = ?", req.LyricsID, order.ID).First(&lyrics).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "LYRICS_NOT_FOUND",
					"message": "Lyrics variation not found for this order",
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

	style := ""
	if order.SelectedStyle != nil {
		style = *order.SelectedStyle
	}

	variations, err := services.GetMusicService().Generate(order, &lyrics, style)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Song generation failed",
			},
		})
		return
	}

	for i := range variations {
		if err := db.Create(&variations[i]).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to save song variations",
				},
			})
			return
		}
	}

	order.SelectedLyricsID = &lyrics.ID
	if models.CanAdvanceStatus(order.Status, models.OrderStatusSongReady) {
		order.Status = models.OrderStatusSongReady
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

	services.RecordEvent(db, &order.ID, "songs_generated", map[string]interface{}{
		"lyrics_id": lyrics.ID,
		"count":     len(variations),
	}, middleware.GetRequestMeta(c))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"songs": variations, "order": order},
	})
}

// ListSongs handles GET /orders/:id/songs
func ListSongs(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var songs []models.SongVariation
	if err := db.Where("order_id = ?", order.ID).Order("created_at asc").Find(&songs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load songs",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"songs": songs},
	})
}

// PreviewSong handles GET /orders/:id/preview/:songId - redirects to the
// preview clip. The first preview of a song-ready order bumps it to
// preview_played; replays are a pure redirect.
func PreviewSong(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var song models.SongVariation
	err := db.Where("id = ? AND order_id = ?", c.Param("songId"), order.ID).First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SONG_NOT_FOUND",
					"message": "Song variation not found",
				},
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to load song variation",
				},
			})
		}
		return
	}

	// Idempotent: only the first playback of a song_ready order records
	// the transition.
	if order.Status == models.OrderStatusSongReady {
		order.Status = models.OrderStatusPreviewPlayed
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
		services.RecordEvent(db, &order.ID, "preview_played", map[string]interface{}{
			"song_id": song.ID,
		}, middleware.GetRequestMeta(c))
	}

	c.Redirect(http.StatusFound, song.PreviewURL)
}
