package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/models"
	"github.com/birthday-song/birthday-song-api/services"
)

// StartVideoRequest represents the request body for starting a video render
type StartVideoRequest struct {
	VideoStyle string   `json:"videoStyle" binding:"required"`
	PhotoURLs  []string `json:"photoUrls"`
}

// StartVideo handles POST /orders/:id/video - creates a pending clip and
// dispatches the render job. Rejected with 409 while another clip for the
// order is still live.
func StartVideo(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	var req StartVideoRequest
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

	var live int64
	db.Model(&models.VideoClip{}).
		Where("order_id = ? AND status IN ?", order.ID,
			[]string{models.VideoStatusPending, models.VideoStatusProcessing}).
		Count(&live)
	if live > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VIDEO_IN_PROGRESS",
				"message": "A video is already being generated for this order",
			},
		})
		return
	}

	clip, err := services.GetVideoService().CreateClip(order, req.VideoStyle, req.PhotoURLs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to start video generation",
			},
		})
		return
	}

	if err := db.Create(clip).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save video clip",
			},
		})
		return
	}

	// The render job goes through the execution shim: queued when the
	// backend is up, synchronous otherwise. Either way the caller sees
	// the same pending clip.
	job := services.VideoRenderJob{OrderID: order.ID, ClipID: clip.ID}
	err = services.GetDispatcher().Dispatch("render-video", job, func() error {
		return services.BeginVideoRender(db, order.ID, clip.ID)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to start video generation",
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    gin.H{"video": clip},
	})
}

// VideoStatus handles GET /orders/:id/video/status - the UI poller.
// Completed in-memory progress is reconciled into the persisted clip
// exactly once, on whichever poll first observes it.
func VideoStatus(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var clips []models.VideoClip
	db.Where("order_id = ?", order.ID).Order("created_at desc").Limit(1).Find(&clips)
	if len(clips) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VIDEO_NOT_FOUND",
				"message": "No video has been started for this order",
			},
		})
		return
	}
	clip := clips[0]

	if models.IsTerminalVideoStatus(clip.Status) {
		progress := 0
		if clip.Status == models.VideoStatusCompleted {
			progress = 100
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"video":    clip,
				"status":   clip.Status,
				"progress": progress,
			},
		})
		return
	}

	svc := services.GetVideoService()
	progress, status, tracked := svc.Tracker().Progress(order.ID, clip.ID)
	if !tracked {
		// Render job not started yet (queued), or the tracker entry was
		// evicted; report the persisted state.
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"video":    clip,
				"status":   clip.Status,
				"progress": 0,
			},
		})
		return
	}

	if status == models.VideoStatusCompleted && svc.Tracker().MarkReconciled(order.ID, clip.ID) {
		now := time.Now()
		url := svc.OutputURL(order.ID)
		clip.Status = models.VideoStatusCompleted
		clip.VideoURL = &url
		clip.CompletedAt = &now
		if err := db.Save(&clip).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to save video clip",
				},
			})
			return
		}
		services.RecordEvent(db, &order.ID, "video_completed", map[string]interface{}{
			"clip_id": clip.ID,
		}, middleware.GetRequestMeta(c))
	} else if status != clip.Status && !models.IsTerminalVideoStatus(status) {
		clip.Status = status
		db.Save(&clip)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"video":    clip,
			"status":   clip.Status,
			"progress": progress,
		},
	})
}
