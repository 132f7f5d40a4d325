package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/services"
)

// PaymentWebhookRequest represents the gateway webhook body
type PaymentWebhookRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// PaymentWebhook handles POST /webhooks/payment - the sole path that
// completes a payment and advances its order to paid. Replays of the same
// session id return the original result without further state changes;
// unknown session ids are rejected.
func PaymentWebhook(c *gin.Context) {
	var req PaymentWebhookRequest
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

	result, err := services.GetPaymentService().ConfirmWebhook(config.GetDB(), req.SessionID, middleware.GetRequestMeta(c))
	if err != nil {
		if errors.Is(err, services.ErrUnknownSession) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PAYMENT_ERROR",
					"message": "Unknown checkout session",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to confirm payment",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
