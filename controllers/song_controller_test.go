package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/birthday-song/birthday-song-api/models"
)

func createTestLyrics(t *testing.T, db *gorm.DB, orderID, id string) *models.LyricsVariation {
	t.Helper()
	lyrics := models.LyricsVariation{
		ID:       id,
		OrderID:  orderID,
		Content:  "test verse",
		Selected: true,
	}
	if err := db.Create(&lyrics).Error; err != nil {
		t.Fatalf("Failed to create test lyrics: %v", err)
	}
	return &lyrics
}

func createTestSong(t *testing.T, db *gorm.DB, orderID, id string, selected bool) *models.SongVariation {
	t.Helper()
	song := models.SongVariation{
		ID:         id,
		OrderID:    orderID,
		Provider:   "mock-suno",
		AudioURL:   "/assets/songs/" + orderID + "-v1.mp3",
		PreviewURL: "/assets/songs/" + orderID + "-v1-preview.mp3",
		Duration:   60,
		Selected:   selected,
	}
	if err := db.Create(&song).Error; err != nil {
		t.Fatalf("Failed to create test song: %v", err)
	}
	return &song
}

func TestGenerateSongs(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	order := createTestOrder(t, db, models.OrderStatusLyricsReady)
	lyrics := createTestLyrics(t, db, order.ID, "44444444-4444-4444-4444-444444444444")

	recorder, response := performJSON(router, "POST", "/orders/"+order.ID+"/generate-songs", map[string]interface{}{
		"lyricsId": lyrics.ID,
	})
	assert.Equal(t, http.StatusOK, recorder.Code)

	data := response["data"].(map[string]interface{})
	songs := data["songs"].([]interface{})
	assert.GreaterOrEqual(t, len(songs), 2)
	assert.LessOrEqual(t, len(songs), 3)

	first := songs[0].(map[string]interface{})
	assert.True(t, first["selected"].(bool))
	assert.NotEmpty(t, first["audio_url"])
	assert.NotEmpty(t, first["preview_url"])

	got := data["order"].(map[string]interface{})
	assert.Equal(t, models.OrderStatusSongReady, got["status"])
	assert.Equal(t, lyrics.ID, got["selected_lyrics_id"])
}

func TestGenerateSongsRejectsForeignLyrics(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	order := createTestOrder(t, db, models.OrderStatusLyricsReady)
	other := createTestOrder(t, db, models.OrderStatusLyricsReady)
	foreign := createTestLyrics(t, db, other.ID, "55555555-5555-5555-5555-555555555555")

	recorder, response := performJSON(router, "POST", "/orders/"+order.ID+"/generate-songs", map[string]interface{}{
		"lyricsId": foreign.ID,
	})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	errData := response["error"].(map[string]interface{})
	assert.Equal(t, "LYRICS_NOT_FOUND", errData["code"])
}

func TestListSongs(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	order := createTestOrder(t, db, models.OrderStatusSongReady)
	createTestSong(t, db, order.ID, "66666666-6666-6666-6666-666666666666", true)

	recorder, response := performJSON(router, "GET", "/orders/"+order.ID+"/songs", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	songs := response["data"].(map[string]interface{})["songs"].([]interface{})
	assert.Len(t, songs, 1)
}

func TestPreviewSong(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	order := createTestOrder(t, db, models.OrderStatusSongReady)
	song := createTestSong(t, db, order.ID, "77777777-7777-7777-7777-777777777777", true)

	// First playback redirects and bumps the order.
	recorder, _ := performJSON(router, "GET", "/orders/"+order.ID+"/preview/"+song.ID, nil)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, song.PreviewURL, recorder.Header().Get("Location"))

	var updated models.Order
	assert.NoError(t, db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPreviewPlayed, updated.Status)

	var events int64
	db.Model(&models.Event{}).Where("type = ?", "preview_played").Count(&events)
	assert.Equal(t, int64(1), events)

	// Replay: still a redirect, no further transition, no duplicate event.
	recorder, _ = performJSON(router, "GET", "/orders/"+order.ID+"/preview/"+song.ID, nil)
	assert.Equal(t, http.StatusFound, recorder.Code)

	assert.NoError(t, db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPreviewPlayed, updated.Status)

	db.Model(&models.Event{}).Where("type = ?", "preview_played").Count(&events)
	assert.Equal(t, int64(1), events)
}

func TestPreviewSongDoesNotDowngradePaidOrder(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	order := createTestOrder(t, db, models.OrderStatusPaid)
	song := createTestSong(t, db, order.ID, "88888888-8888-8888-8888-888888888888", true)

	recorder, _ := performJSON(router, "GET", "/orders/"+order.ID+"/preview/"+song.ID, nil)
	assert.Equal(t, http.StatusFound, recorder.Code)

	var updated models.Order
	assert.NoError(t, db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, updated.Status)
}

func TestPreviewSongNotFound(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	order := createTestOrder(t, db, models.OrderStatusSongReady)

	recorder, response := performJSON(router, "GET", "/orders/"+order.ID+"/preview/99999999-9999-9999-9999-999999999999", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	errData := response["error"].(map[string]interface{})
	assert.Equal(t, "SONG_NOT_FOUND", errData["code"])
}
