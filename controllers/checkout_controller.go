package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/services"
)

// StartCheckoutRequest represents the request body for starting checkout
type StartCheckoutRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// StartCheckout handles POST /orders/:id/checkout - validates the tier
// against the price table, creates a pending payment and returns the
// gateway session handle.
func StartCheckout(c *gin.Context) {
	order, ok := findOrder(c)
	if !ok {
		return
	}

	var req StartCheckoutRequest
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

	payment, session, err := services.GetPaymentService().CreateSession(order, req.Tier)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTier) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Unknown product tier",
					"details": req.Tier,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to create checkout session",
			},
		})
		return
	}

	db := config.GetDB()
	if err := db.Create(payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save payment",
			},
		})
		return
	}

	services.RecordEvent(db, &order.ID, "checkout_started", map[string]interface{}{
		"tier":         req.Tier,
		"amount_cents": payment.AmountCents,
		"session_id":   session.SessionID,
	}, middleware.GetRequestMeta(c))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sessionId":   session.SessionID,
			"checkoutUrl": session.CheckoutURL,
			"payment":     payment,
		},
	})
}
