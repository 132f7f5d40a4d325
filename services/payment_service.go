package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/birthday-song/birthday-song-api/models"
)

// Product tiers and their immutable prices in minor currency units.
var tierPrices = map[string]int{
	"song":    999,
	"bundle":  1999,
	"premium": 2999,
	"pack_5":  3999,
	"pack_10": 6999,
}

var (
	// ErrInvalidTier is returned when a checkout names an unknown tier.
	ErrInvalidTier = errors.New("invalid product tier")
	// ErrUnknownSession is returned when a webhook references a session id
	// no checkout ever created.
	ErrUnknownSession = errors.New("unknown gateway session")
)

// TierPrice returns the price in cents for a tier.
func TierPrice(tier string) (int, error) {
	price, ok := tierPrices[tier]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	return price, nil
}

// CheckoutSession is the gateway handle returned when checkout starts.
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// WebhookResult is the outcome of confirming a gateway session.
type WebhookResult struct {
	Success         bool   `json:"success"`
	OrderID         string `json:"order_id"`
	Tier            string `json:"tier"`
	AmountCents     int    `json:"amount_cents"`
	PaymentIntentID string `json:"payment_intent_id"`
	AlreadyPaid     bool   `json:"already_paid"`
}

// PaymentService is the checkout/payment gateway adapter. The current
// implementation simulates the gateway: sessions are minted locally and
//"confirmed" by our own webhook simulator. A real Stripe integration must
// fit behind the same two operations.
type PaymentService interface {
	// CreateSession validates the tier and mints a pending checkout
	// session for the order. The caller persists the Payment row.
	CreateSession(order *models.Order, tier string) (*models.Payment, *CheckoutSession, error)

	// ConfirmWebhook is the sole authority that flips a Payment to
	// completed and its Order to paid. Safe to call repeatedly for the
	// same session: the second call is a no-op success. Unknown sessions
	// fail with ErrUnknownSession.
	ConfirmWebhook(db *gorm.DB, sessionID string, meta RequestMeta) (*WebhookResult, error)
}

var paymentServiceInstance PaymentService

// InitPaymentService initializes the payment service with the mock
// gateway. publicOrigin is the externally-visible origin used to build
// checkout URLs.
func InitPaymentService(publicOrigin string) PaymentService {
	paymentServiceInstance = &mockPaymentService{publicOrigin: publicOrigin}
	return paymentServiceInstance
}

// GetPaymentService returns the initialized payment service instance
func GetPaymentService() PaymentService {
	return paymentServiceInstance
}

// SetPaymentService sets the payment service instance (primarily for testing)
func SetPaymentService(s PaymentService) {
	paymentServiceInstance = s
}

type mockPaymentService struct {
	publicOrigin string
}

func (s *mockPaymentService) CreateSession(order *models.Order, tier string) (*models.Payment, *CheckoutSession, error) {
	price, err := TierPrice(tier)
	if err != nil {
		return nil, nil, err
	}

	sessionID := fmt.Sprintf("cs_mock_%s", uuid.NewString())
	payment := &models.Payment{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		Tier:        tier,
		AmountCents: price,
		Currency:    "usd",
		SessionID:   sessionID,
		Status:      models.PaymentStatusPending,
	}
	session := &CheckoutSession{
		SessionID:   sessionID,
		CheckoutURL: fmt.Sprintf("%s/checkout/mock/%s", s.publicOrigin, sessionID),
	}

	log.WithFields(log.Fields{
		"order_id":   order.ID,
		"tier":       tier,
		"amount":     price,
		"session_id": sessionID,
	}).Info("Created checkout session")

	return payment, session, nil
}

func (s *mockPaymentService) ConfirmWebhook(db *gorm.DB, sessionID string, meta RequestMeta) (*WebhookResult, error) {
	var payment models.Payment
	if err := db.Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSession, sessionID)
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	result := &WebhookResult{
		Success:     true,
		OrderID:     payment.OrderID,
		Tier:        payment.Tier,
		AmountCents: payment.AmountCents,
	}

	// Replayed webhook: same result, no state change, no duplicate event.
	if payment.Status == models.PaymentStatusCompleted {
		if payment.PaymentIntentID != nil {
			result.PaymentIntentID = *payment.PaymentIntentID
		}
		result.AlreadyPaid = true
		return result, nil
	}

	now := time.Now()
	intentID := fmt.Sprintf("pi_mock_%s", uuid.NewString())
	payment.Status = models.PaymentStatusCompleted
	payment.PaidAt = &now
	payment.PaymentIntentID = &intentID
	if err := db.Save(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}
	result.PaymentIntentID = intentID

	var order models.Order
	if err := db.First(&order, "id = ?", payment.OrderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if models.CanAdvanceStatus(order.Status, models.OrderStatusPaid) {
		order.Status = models.OrderStatusPaid
		if err := db.Save(&order).Error; err != nil {
			return nil, fmt.Errorf("failed to advance order: %w", err)
		}
	}

	RecordEvent(db, &payment.OrderID, "payment_completed", map[string]interface{}{
		"session_id":   sessionID,
		"tier":         payment.Tier,
		"amount_cents": payment.AmountCents,
	}, meta)

	log.WithFields(log.Fields{
		"order_id":   payment.OrderID,
		"session_id": sessionID,
	}).Info("Payment confirmed")

	return result, nil
}
