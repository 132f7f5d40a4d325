package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/services"
	"github.com/birthday-song/birthday-song-api/utils"
)

// UploadPhotos handles POST /orders/:id/photos - stores recipient photos
// for the video render and returns their URLs.
func UploadPhotos(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid multipart form",
				"details": err.Error(),
			},
		})
		return
	}

	files := form.File["photos"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "At least one photo is required",
			},
		})
		return
	}
	if len(files) > utils.MaxPhotosPerOrder {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Too many photos in one upload",
			},
		})
		return
	}

	for _, fileHeader := range files {
		if err := utils.ValidatePhotoFile(fileHeader); err != nil {
			uploadErr, isUploadErr := err.(*utils.FileUploadError)
			code := "VALIDATION_ERROR"
			if isUploadErr {
				code = uploadErr.Code
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    code,
					"message": err.Error(),
				},
			})
			return
		}
	}

	storage := services.GetPhotoStorage()
	urls := make([]string, 0, len(files))
	for _, fileHeader := range files {
		url, err := storage.UploadPhoto(order.ID, fileHeader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "Failed to store photo",
				},
			})
			return
		}
		urls = append(urls, url)
	}

	services.RecordEvent(config.GetDB(), &order.ID, "photos_uploaded", map[string]interface{}{
		"count": len(urls),
	}, middleware.GetRequestMeta(c))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    gin.H{"photoUrls": urls},
	})
}
