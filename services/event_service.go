package services

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/birthday-song/birthday-song-api/models"
)

// RequestMeta carries the request-level metadata attached to audit events.
type RequestMeta struct {
	IP        string
	UserAgent string
	Referrer  string
}

// RecordEvent appends an audit event for an order transition. Events are
// write-only from the application's point of view; a failure to record one
// is logged but never fails the calling operation.
func RecordEvent(db *gorm.DB, orderID *string, eventType string, payload interface{}, meta RequestMeta) {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			log.WithError(err).WithField("event_type", eventType).Warn("Failed to marshal event payload")
			raw = nil
		}
	}

	event := models.Event{
		OrderID:   orderID,
		Type:      eventType,
		Payload:   raw,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	if err := db.Create(&event).Error; err != nil {
		log.WithError(err).WithField("event_type", eventType).Warn("Failed to record event")
	}
}
