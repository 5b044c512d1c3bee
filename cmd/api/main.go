package main

import (
	"log"
	"time"

	"attendance-api/config"
	"attendance-api/handlers"
	"attendance-api/middleware"
	"attendance-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("Start service")
	// .env is optional; production configures through the environment
	_ = godotenv.Load()

	cfg := config.Load()

	log.Println("init services")
	minioService, err := services.NewMinIOService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}

	cacheService := services.NewCacheService(cfg.CacheTTL, 2*cfg.CacheTTL)
	fetcherService := services.NewFetcherService(cfg)

	log.Println("init handlers")
	ingestHandler := handlers.NewIngestHandler(fetcherService, cacheService)
	importHandler := handlers.NewImportHandler(minioService, cacheService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Println("init router")
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())
	router.Use(gin.Recovery())

	// API routes
	api := router.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now(),
			})
		})

		// Parse an in-memory document (HTML page or pasted tab text)
		api.POST("/schedule/parse", ingestHandler.ParseSchedule)

		// Fetch from the registration system and parse
		api.POST("/schedule/fetch", ingestHandler.FetchSchedule)

		// Store a selected entry list as an import artifact
		api.POST("/schedule/import", importHandler.ImportSchedule)

		// Stored imports
		api.GET("/schedule/sessions", importHandler.GetSessions)
		api.GET("/schedule/sessions/:session/imports", importHandler.GetImports)
		api.GET("/schedule/sessions/:session/imports/:filename/download", importHandler.GetPresignedDownloadURL)

		// Cache management
		api.POST("/cache/invalidate", importHandler.InvalidateCache)
	}

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
