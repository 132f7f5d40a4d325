package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/birthday-song/birthday-song-api/models"
)

// MusicService generates song variations from a lyrics variation. Mock
// provider: canned URLs derived from the order id, simulated delay.
type MusicService interface {
	// Generate returns a fresh batch of 2-3 song variations rendered from
	// the given lyrics. The first variation is marked selected.
	Generate(order *models.Order, lyrics *models.LyricsVariation, style string) ([]models.SongVariation, error)
}

var musicServiceInstance MusicService

// InitMusicService initializes the music service with the default mock
// generator.
func InitMusicService(minDelay, maxDelay time.Duration) MusicService {
	musicServiceInstance = &mockMusicService{minDelay: minDelay, maxDelay: maxDelay}
	return musicServiceInstance
}

// GetMusicService returns the initialized music service instance
func GetMusicService() MusicService {
	return musicServiceInstance
}

// SetMusicService sets the music service instance (primarily for testing)
func SetMusicService(s MusicService) {
	musicServiceInstance = s
}

type mockMusicService struct {
	minDelay time.Duration
	maxDelay time.Duration
}

func (s *mockMusicService) Generate(order *models.Order, lyrics *models.LyricsVariation, style string) ([]models.SongVariation, error) {
	simulateDelay(s.minDelay, s.maxDelay)

	count := 2 + rand.Intn(2)

	variations := make([]models.SongVariation, 0, count)
	for i := 0; i < count; i++ {
		variations = append(variations, models.SongVariation{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			Provider:    "mock-suno",
			ProviderID:  fmt.Sprintf("mock-%s-%d", order.ID, i),
			StylePrompt: fmt.Sprintf("%s birthday song, %s mood, language %s", style, order.DesiredTone, order.Language),
			AudioURL:    fmt.Sprintf("/assets/songs/%s-v%d.mp3", order.ID, i+1),
			PreviewURL:  fmt.Sprintf("/assets/songs/%s-v%d-preview.mp3", order.ID, i+1),
			Duration:    45 + rand.Intn(46), // 45-90s
			Selected:    i == 0,
		})
	}

	log.WithFields(log.Fields{
		"order_id":  order.ID,
		"lyrics_id": lyrics.ID,
		"style":     style,
		"count":     count,
	}).Info("Generated song variations")

	return variations, nil
}
