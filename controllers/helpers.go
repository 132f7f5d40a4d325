package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/models"
)

// findOrder loads the order named by the :id path parameter, writing the
// error response itself when the order is absent. The bool result tells
// the handler whether to continue.
func findOrder(c *gin.Context) (*models.Order, bool) {
	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Order ID is required",
			},
		})
		return nil, false
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to load order",
				},
			})
		}
		return nil, false
	}

	return &order, true
}
