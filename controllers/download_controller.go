package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/models"
	"github.com/birthday-song/birthday-song-api/services"
)

// DownloadArtifact is one downloadable asset of a paid order.
type DownloadArtifact struct {
	Type string `json:"type"` // audio, lyrics, video
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

// Download handles GET /orders/:id/download - strictly gated on the order
// being paid or completed. The first authorized access of a paid order
// marks it completed; repeat calls return the same artifact set without
// re-emitting the completion event.
func Download(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	if !models.StatusAtLeast(order.Status, models.OrderStatusPaid) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PAYMENT_REQUIRED",
				"message": "Order has not been paid",
			},
		})
		return
	}

	db := config.GetDB()
	artifacts := []DownloadArtifact{}

	var songs []models.SongVariation
	db.Where("order_id = ? AND selected = ?", order.ID, true).Order("created_at desc").Find(&songs)
	if order.SelectedSongID != nil {
		var chosen models.SongVariation
		if err := db.Where("id = ? AND order_id = ?", *order.SelectedSongID, order.ID).First(&chosen).Error; err == nil {
			songs = append([]models.SongVariation{chosen}, songs...)
		}
	}
	if len(songs) > 0 && songs[0].AudioURL != "" {
		artifacts = append(artifacts, DownloadArtifact{Type: "audio", URL: songs[0].AudioURL})
	}

	if order.SelectedLyricsID != nil {
		var lyrics models.LyricsVariation
		if err := db.Where("id = ? AND order_id = ?", *order.SelectedLyricsID, order.ID).First(&lyrics).Error; err == nil {
			text := lyrics.Content
			if lyrics.EditedContent != nil {
				text = *lyrics.EditedContent
			}
			artifacts = append(artifacts, DownloadArtifact{Type: "lyrics", Text: text})
		}
	}

	var clips []models.VideoClip
	db.Where("order_id = ? AND status = ?", order.ID, models.VideoStatusCompleted).
		Order("created_at desc").Limit(1).Find(&clips)
	if len(clips) > 0 && clips[0].VideoURL != nil {
		artifacts = append(artifacts, DownloadArtifact{Type: "video", URL: *clips[0].VideoURL})
	}

	// First authorized download of a paid order completes it.
	if order.Status == models.OrderStatusPaid {
		order.Status = models.OrderStatusCompleted
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
		services.RecordEvent(db, &order.ID, "order_completed", map[string]interface{}{
			"artifact_count": len(artifacts),
		}, middleware.GetRequestMeta(c))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"artifacts": artifacts,
			"order":     order,
		},
	})
}
