package services

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/birthday-song/birthday-song-api/models"
)

// LyricsService generates lyrics variations for an order. The current
// implementation is a mock that returns canned text after a simulated
// delay; a real provider integration must fit behind the same interface.
type LyricsService interface {
	// Generate returns a fresh batch of 2-3 variations for the given style.
	// The first variation of the batch is marked selected by convention.
	Generate(order *models.Order, style string) ([]models.LyricsVariation, error)
}

var lyricsServiceInstance LyricsService

// InitLyricsService initializes the lyrics service with the default mock
// generator.
func InitLyricsService(minDelay, maxDelay time.Duration) LyricsService {
	lyricsServiceInstance = &mockLyricsService{minDelay: minDelay, maxDelay: maxDelay}
	return lyricsServiceInstance
}

// GetLyricsService returns the initialized lyrics service instance
func GetLyricsService() LyricsService {
	return lyricsServiceInstance
}

// SetLyricsService sets the lyrics service instance (primarily for testing)
func SetLyricsService(s LyricsService) {
	lyricsServiceInstance = s
}

// mockLyricsService simulates an AI lyrics provider. No external call is
// made; output is deterministic apart from the batch size and delay.
type mockLyricsService struct {
	minDelay time.Duration
	maxDelay time.Duration
}

var lyricsModels = []string{"lyra-1", "lyra-1-mini", "versecraft-2"}

func (s *mockLyricsService) Generate(order *models.Order, style string) ([]models.LyricsVariation, error) {
	simulateDelay(s.minDelay, s.maxDelay)

	// 2 or 3 variations per batch; downstream code must not assume a
	// fixed count.
	count := 2 + rand.Intn(2)

	variations := make([]models.LyricsVariation, 0, count)
	for i := 0; i < count; i++ {
		variations = append(variations, models.LyricsVariation{
			ID:           uuid.NewString(),
			OrderID:      order.ID,
			Model:        lyricsModels[i%len(lyricsModels)],
			StyleVariant: fmt.Sprintf("%s-v%d", style, i+1),
			Content:      buildLyrics(order, style, i),
			Selected:     i == 0,
		})
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"style":    style,
		"count":    count,
	}).Info("Generated lyrics variations")

	return variations, nil
}

// buildLyrics produces canned personalized lyrics for one variation.
func buildLyrics(order *models.Order, style string, index int) string {
	name := order.RecipientNickname
	if name == "" {
		name = order.RecipientName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Verse %d]\n", index+1)
	fmt.Fprintf(&b, "Happy birthday, %s, this song is just for you\n", name)
	if order.Relationship != "" {
		fmt.Fprintf(&b, "From your %s, with a heart so true\n", order.Relationship)
	}
	fmt.Fprintf(&b, "Another year of laughter in %s style\n", style)
	if order.Hobbies != "" {
		fmt.Fprintf(&b, "Still crazy about %s after all this while\n", order.Hobbies)
	}
	b.WriteString("\n[Chorus]\n")
	fmt.Fprintf(&b, "So raise it up for %s, it's your special day\n", name)
	fmt.Fprintf(&b, "May every wish you're making find its way\n")
	return b.String()
}

// simulateDelay sleeps for a random duration in [min, max] in place of a
// real provider call. A zero max disables the sleep entirely (tests).
func simulateDelay(min, max time.Duration) {
	if max <= 0 {
		return
	}
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}
