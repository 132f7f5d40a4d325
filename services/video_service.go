package services

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/birthday-song/birthday-song-api/models"
)

// VideoRenderJob is the queue payload for starting a clip render.
type VideoRenderJob struct {
	OrderID string `json:"order_id"`
	ClipID  string `json:"clip_id"`
}

// VideoService runs the long-running (mocked) video render for an order.
// Unlike lyrics and songs, video is polled rather than awaited: the clip
// row is created up front in "pending" and a render job (queued or direct)
// registers the in-memory progress entry the poller reads until it
// reconciles the completed state back into the row.
type VideoService interface {
	// CreateClip builds the pending clip for an order. The caller owns the
	// database write.
	CreateClip(order *models.Order, style string, photoURLs []string) (*models.VideoClip, error)

	// BeginRender registers the clip with the progress tracker using a
	// randomized simulated render duration. Idempotent per clip.
	BeginRender(orderID, clipID string)

	// OutputURL returns the deterministic final asset URL for an order.
	OutputURL(orderID string) string

	// Tracker exposes the in-memory progress tracker for the poller.
	Tracker() *ProgressTracker
}

var videoServiceInstance VideoService

// InitVideoService initializes the video service with the default mock
// renderer. minRender/maxRender bound the simulated render duration.
func InitVideoService(tracker *ProgressTracker, minRender, maxRender time.Duration) VideoService {
	videoServiceInstance = &mockVideoService{
		tracker:   tracker,
		minRender: minRender,
		maxRender: maxRender,
	}
	return videoServiceInstance
}

// GetVideoService returns the initialized video service instance
func GetVideoService() VideoService {
	return videoServiceInstance
}

// SetVideoService sets the video service instance (primarily for testing)
func SetVideoService(s VideoService) {
	videoServiceInstance = s
}

// BeginVideoRender is the render job body shared by the queue handler and
// the direct fallback: it registers progress tracking for the clip and
// records the start event. Both execution paths run exactly this.
func BeginVideoRender(db *gorm.DB, orderID, clipID string) error {
	svc := GetVideoService()
	if svc == nil {
		return fmt.Errorf("video service not initialized")
	}
	svc.BeginRender(orderID, clipID)
	RecordEvent(db, &orderID, "video_render_started", map[string]interface{}{
		"clip_id": clipID,
	}, RequestMeta{})
	return nil
}

// DecodeVideoRenderJob parses a queued render job payload.
func DecodeVideoRenderJob(payload []byte) (*VideoRenderJob, error) {
	var job VideoRenderJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("invalid render job payload: %w", err)
	}
	if job.OrderID == "" || job.ClipID == "" {
		return nil, fmt.Errorf("render job missing order or clip id")
	}
	return &job, nil
}

type mockVideoService struct {
	tracker   *ProgressTracker
	minRender time.Duration
	maxRender time.Duration
}

func (s *mockVideoService) CreateClip(order *models.Order, style string, photoURLs []string) (*models.VideoClip, error) {
	photos, err := json.Marshal(photoURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo urls: %w", err)
	}

	return &models.VideoClip{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		Provider:   "mock-runway",
		ProviderID: fmt.Sprintf("mock-render-%s", uuid.NewString()[:8]),
		PhotoURLs:  photos,
		Style:      style,
		Status:     models.VideoStatusPending,
	}, nil
}

func (s *mockVideoService) BeginRender(orderID, clipID string) {
	if _, _, tracked := s.tracker.Progress(orderID, clipID); tracked {
		return
	}

	total := s.minRender
	if s.maxRender > s.minRender {
		total += time.Duration(rand.Int63n(int64(s.maxRender - s.minRender)))
	}
	s.tracker.Track(orderID, clipID, total)

	log.WithFields(log.Fields{
		"order_id": orderID,
		"clip_id":  clipID,
		"duration": total,
	}).Info("Started video render")
}

func (s *mockVideoService) OutputURL(orderID string) string {
	return fmt.Sprintf("/assets/videos/%s-birthday.mp4", orderID)
}

func (s *mockVideoService) Tracker() *ProgressTracker {
	return s.tracker
}
