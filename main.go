package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/birthday-song/birthday-song-api/config"
	"github.com/birthday-song/birthday-song-api/controllers"
	"github.com/birthday-song/birthday-song-api/middleware"
	"github.com/birthday-song/birthday-song-api/models"
	"github.com/birthday-song/birthday-song-api/services"
)

func main() {
	log.Info("Starting Birthday Song API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Order{},
		&models.LyricsVariation{},
		&models.SongVariation{},
		&models.VideoClip{},
		&models.Payment{},
		&models.Event{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Info("Database migration completed successfully")

	initServices(cfg)

	router := setupRouter()

	port := ":" + cfg.Port
	log.Infof("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initServices wires the generation, payment, storage and dispatch
// services once at startup.
func initServices(cfg *config.Config) {
	services.InitLyricsService(1500*time.Millisecond, 3500*time.Millisecond)
	services.InitMusicService(2*time.Second, 5*time.Second)

	tracker := services.NewProgressTracker(30 * time.Minute)
	services.InitVideoService(tracker, 20*time.Second, 40*time.Second)

	services.InitPaymentService(cfg.PublicOrigin)

	if cfg.MockMode {
		services.SetPhotoStorage(services.NewMockPhotoStorage())
	} else if _, err := services.InitPhotoStorage(); err != nil {
		log.Warnf("Photo storage unavailable, using mock store: %v", err)
		services.SetPhotoStorage(services.NewMockPhotoStorage())
	}

	dispatcher := services.InitDispatcher(cfg.QueueURL)
	dispatcher.RegisterHandler("render-video", func(payload []byte) error {
		job, err := services.DecodeVideoRenderJob(payload)
		if err != nil {
			return err
		}
		return services.BeginVideoRender(config.GetDB(), job.OrderID, job.ClipID)
	})
}

// setupRouter builds the Gin engine with the full route table.
func setupRouter() *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))
	router.Use(middleware.RequestMeta())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
	}

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

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Birthday Song API is running",
	})
}
