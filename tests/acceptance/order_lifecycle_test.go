package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/controllers"
	"github.com/birthday-song/birthday-song-api/models"
	"github.com/birthday-song/birthday-song-api/services"
	"github.com/birthday-song/birthday-song-api/tests/testutil"
)

// OrderLifecycleTestSuite walks the song-creation journey end to end over
// real HTTP: questionnaire, lyrics, songs, preview, video, checkout,
// webhook, download.
type OrderLifecycleTestSuite struct {
	suite.Suite
	server  *httptest.Server
	db      *gorm.DB
	client  *http.Client
	tracker *services.ProgressTracker
}

// SetupSuite runs once before all tests
func (suite *OrderLifecycleTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(suite.T())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&models.Order{},
		&models.LyricsVariation{},
		&models.SongVariation{},
		&models.VideoClip{},
		&models.Payment{},
		&models.Event{},
	)
	suite.NoError(err)
	config.SetDB(db)

	// Instant generation and rendering so the journey runs without waiting.
	services.InitLyricsService(0, 0)
	services.InitMusicService(0, 0)
	suite.tracker = services.NewProgressTracker(time.Hour)
	services.InitVideoService(suite.tracker, 0, 0)
	services.InitPaymentService("http://localhost:8080")
	services.SetPhotoStorage(services.NewMockPhotoStorage())
	services.SetDispatcher(&services.DirectDispatcher{})

	suite.server = httptest.NewServer(suite.createRouter())

	// Preview responses are redirects to asset paths; the client must not
	// chase them.
	suite.client = &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// TearDownSuite runs once after all tests
func (suite *OrderLifecycleTestSuite) TearDownSuite() {
	suite.server.Close()
	suite.tracker.Close()
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// SetupTest runs before each test
func (suite *OrderLifecycleTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM events")
	suite.db.Exec("DELETE FROM payments")
	suite.db.Exec("DELETE FROM video_clips")
	suite.db.Exec("DELETE FROM song_variations")
	suite.db.Exec("DELETE FROM lyrics_variations")
	suite.db.Exec("DELETE FROM orders")
}

// createRouter assembles the public route table for the test server.
func (suite *OrderLifecycleTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	orders := router.Group("/orders")
	{
		orders.POST("", controllers.CreateOrder)
		orders.GET("/:id", controllers.GetOrder)
		orders.PATCH("/:id", controllers.UpdateOrder)
		orders.POST("/:id/generate-lyrics", controllers.GenerateLyrics)
		orders.GET("/:id/lyrics", controllers.ListLyrics)
		orders.PATCH("/:id/lyrics/:lyricsId", controllers.UpdateLyrics)
		orders.POST("/:id/generate-songs", controllers.GenerateSongs)
		orders.GET("/:id/songs", controllers.ListSongs)
		orders.GET("/:id/preview/:songId", controllers.PreviewSong)
		orders.POST("/:id/photos", controllers.UploadPhotos)
		orders.POST("/:id/video", controllers.StartVideo)
		orders.GET("/:id/video/status", controllers.VideoStatus)
		orders.POST("/:id/checkout", controllers.StartCheckout)
		orders.GET("/:id/download", controllers.Download)
	}
	router.POST("/webhooks/payment", controllers.PaymentWebhook)

	return router
}

// makeRequest is a helper to make HTTP requests
func (suite *OrderLifecycleTestSuite) makeRequest(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyJSON, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyJSON)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, suite.server.URL+path, bodyReader)
	suite.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := suite.client.Do(req)
	suite.NoError(err)

	var responseData map[string]interface{}
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		err = json.NewDecoder(resp.Body).Decode(&responseData)
		suite.NoError(err)
	}
	resp.Body.Close()

	return resp, responseData
}

// TestCompleteSongJourney_Acceptance walks the whole happy path for one
// recipient, from questionnaire submission through paid download.
func (suite *OrderLifecycleTestSuite) TestCompleteSongJourney_Acceptance() {
	// Step 1: Submit the questionnaire.
	createBody := map[string]interface{}{
		"recipientName":   "Dana",
		"recipientGender": "female",
		"relationship":    "sister",
		"hobbies":         "painting",
		"desiredTone":     "funny",
		"language":        "en",
	}
	resp, respData := suite.makeRequest("POST", "/orders", createBody)

	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	assert.True(suite.T(), respData["success"].(bool))

	orderData := respData["data"].(map[string]interface{})["order"].(map[string]interface{})
	orderID := orderData["id"].(string)
	assert.Equal(suite.T(), "questionnaire_done", orderData["status"])

	// Step 2: Generate lyrics in a pop style.
	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/generate-lyrics", map[string]interface{}{
		"style": "pop",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	data := respData["data"].(map[string]interface{})
	lyricsBatch := data["lyrics"].([]interface{})
	assert.GreaterOrEqual(suite.T(), len(lyricsBatch), 2)
	assert.LessOrEqual(suite.T(), len(lyricsBatch), 3)

	orderData = data["order"].(map[string]interface{})
	assert.Equal(suite.T(), "lyrics_ready", orderData["status"])
	assert.Equal(suite.T(), "pop", orderData["selected_style"])

	lyricsID := lyricsBatch[0].(map[string]interface{})["id"].(string)

	// Step 3: Render songs from the first variation.
	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/generate-songs", map[string]interface{}{
		"lyricsId": lyricsID,
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	data = respData["data"].(map[string]interface{})
	songs := data["songs"].([]interface{})
	assert.GreaterOrEqual(suite.T(), len(songs), 2)

	orderData = data["order"].(map[string]interface{})
	assert.Equal(suite.T(), "song_ready", orderData["status"])
	assert.Equal(suite.T(), lyricsID, orderData["selected_lyrics_id"])

	songID := songs[0].(map[string]interface{})["id"].(string)
	previewURL := songs[0].(map[string]interface{})["preview_url"].(string)

	// Step 4: Play the preview.
	resp, _ = suite.makeRequest("GET", "/orders/"+orderID+"/preview/"+songID, nil)
	assert.Equal(suite.T(), http.StatusFound, resp.StatusCode)
	assert.Equal(suite.T(), previewURL, resp.Header.Get("Location"))

	var order models.Order
	suite.NoError(suite.db.First(&order, "id = ?", orderID).Error)
	assert.Equal(suite.T(), models.OrderStatusPreviewPlayed, order.Status)

	// Step 5: Start the video render and poll it to completion.
	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/video", map[string]interface{}{
		"videoStyle": "slideshow",
	})
	assert.Equal(suite.T(), http.StatusAccepted, resp.StatusCode)

	resp, respData = suite.makeRequest("GET", "/orders/"+orderID+"/video/status", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	data = respData["data"].(map[string]interface{})
	assert.Equal(suite.T(), "completed", data["status"])
	assert.Equal(suite.T(), float64(100), data["progress"])

	// Step 6: Checkout for the single-song tier.
	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/checkout", map[string]interface{}{
		"tier": "song",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	data = respData["data"].(map[string]interface{})
	sessionID := data["sessionId"].(string)
	payment := data["payment"].(map[string]interface{})
	assert.Equal(suite.T(), float64(999), payment["amount_cents"])
	assert.Equal(suite.T(), "pending", payment["status"])

	// Step 7: The gateway confirms via webhook.
	resp, respData = suite.makeRequest("POST", "/webhooks/payment", map[string]interface{}{
		"sessionId": sessionID,
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), orderID, respData["data"].(map[string]interface{})["order_id"])

	suite.NoError(suite.db.First(&order, "id = ?", orderID).Error)
	assert.Equal(suite.T(), models.OrderStatusPaid, order.Status)

	// Step 8: Download the artifacts; the order completes.
	resp, respData = suite.makeRequest("GET", "/orders/"+orderID+"/download", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	data = respData["data"].(map[string]interface{})
	artifacts := data["artifacts"].([]interface{})
	types := make(map[string]bool)
	for _, a := range artifacts {
		types[a.(map[string]interface{})["type"].(string)] = true
	}
	assert.True(suite.T(), types["audio"], "Download should include the song audio")
	assert.True(suite.T(), types["lyrics"], "Download should include the lyrics text")
	assert.True(suite.T(), types["video"], "Download should include the completed video")

	assert.Equal(suite.T(), "completed", data["order"].(map[string]interface{})["status"])

	suite.NoError(suite.db.First(&order, "id = ?", orderID).Error)
	assert.Equal(suite.T(), models.OrderStatusCompleted, order.Status)
}

// TestLyricsRegenerationResetsJourney_Acceptance verifies the one backward
// transition: regenerating lyrics pulls an advanced order back to
// lyrics_ready while keeping every generated asset.
func (suite *OrderLifecycleTestSuite) TestLyricsRegenerationResetsJourney_Acceptance() {
	resp, respData := suite.makeRequest("POST", "/orders", map[string]interface{}{
		"recipientName": "Marco",
	})
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	orderID := respData["data"].(map[string]interface{})["order"].(map[string]interface{})["id"].(string)

	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/generate-lyrics", map[string]interface{}{
		"style": "rock",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	firstBatch := len(respData["data"].(map[string]interface{})["lyrics"].([]interface{}))
	lyricsID := respData["data"].(map[string]interface{})["lyrics"].([]interface{})[0].(map[string]interface{})["id"].(string)

	resp, _ = suite.makeRequest("POST", "/orders/"+orderID+"/generate-songs", map[string]interface{}{
		"lyricsId": lyricsID,
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	// Regenerate in a different style: status resets, assets accumulate.
	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/generate-lyrics", map[string]interface{}{
		"style": "acoustic",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	orderData := respData["data"].(map[string]interface{})["order"].(map[string]interface{})
	assert.Equal(suite.T(), "lyrics_ready", orderData["status"])
	assert.Equal(suite.T(), "acoustic", orderData["selected_style"])

	var lyricsCount int64
	suite.db.Model(&models.LyricsVariation{}).Where("order_id = ?", orderID).Count(&lyricsCount)
	assert.Greater(suite.T(), lyricsCount, int64(firstBatch), "Earlier variations must survive regeneration")

	var songCount int64
	suite.db.Model(&models.SongVariation{}).Where("order_id = ?", orderID).Count(&songCount)
	assert.Greater(suite.T(), songCount, int64(0), "Generated songs must survive regeneration")
}

// TestDownloadBlockedUntilPaid_Acceptance verifies the payment gate over
// real HTTP at every pre-payment stage.
func (suite *OrderLifecycleTestSuite) TestDownloadBlockedUntilPaid_Acceptance() {
	resp, respData := suite.makeRequest("POST", "/orders", map[string]interface{}{
		"recipientName": "Ines",
	})
	assert.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	orderID := respData["data"].(map[string]interface{})["order"].(map[string]interface{})["id"].(string)

	resp, respData = suite.makeRequest("GET", "/orders/"+orderID+"/download", nil)
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)
	errorData := respData["error"].(map[string]interface{})
	assert.Equal(suite.T(), "PAYMENT_REQUIRED", errorData["code"])

	// Advance through lyrics and songs; still no download.
	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/generate-lyrics", map[string]interface{}{
		"style": "pop",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	lyricsID := respData["data"].(map[string]interface{})["lyrics"].([]interface{})[0].(map[string]interface{})["id"].(string)

	resp, _ = suite.makeRequest("POST", "/orders/"+orderID+"/generate-songs", map[string]interface{}{
		"lyricsId": lyricsID,
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	resp, _ = suite.makeRequest("GET", "/orders/"+orderID+"/download", nil)
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)

	// Pay, then download succeeds.
	resp, respData = suite.makeRequest("POST", "/orders/"+orderID+"/checkout", map[string]interface{}{
		"tier": "song",
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	sessionID := respData["data"].(map[string]interface{})["sessionId"].(string)

	resp, _ = suite.makeRequest("POST", "/webhooks/payment", map[string]interface{}{
		"sessionId": sessionID,
	})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	resp, _ = suite.makeRequest("GET", "/orders/"+orderID+"/download", nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
}

// TestOrderLifecycleSuite runs the test suite
func TestOrderLifecycleSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
