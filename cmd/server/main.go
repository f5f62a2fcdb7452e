package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/api"
	"github.com/Fussballversager/data-pipeline-buddy/internal/cache"
	"github.com/Fussballversager/data-pipeline-buddy/internal/config"
	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository/memory"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository/mongo"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"
	"github.com/Fussballversager/data-pipeline-buddy/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title Training Planner API
// @version 1.0
// @description API for football coaches planning months, weeks and training days, with generation through an external workflow.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Training Planner Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Hierarchy Store ---
	var stores repository.Stores
	switch cfg.Database.Driver {
	case "memory":
		log.Println("WARN: Using the in-memory store, data is lost on restart.")
		stores = memory.NewStore().Bundle()
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Println("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		log.Println("Database connection established.")

		// Unique period indexes back the duplicate check, so they are built before serving.
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		mongo.EnsureIndexes(ctx, appDB)
		cancel()
		stores = mongo.NewStores(appDB)
	}

	// --- Run Status Store ---
	var statuses generation.StatusStore = generation.NewMemoryStatusStore()
	if cfg.Cache.Address != "" {
		redisClient, err := cache.NewClient(cfg.Cache)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to Redis: %v", err)
		}
		defer redisClient.Close()
		statuses = cache.NewRunStatusStore(redisClient, cfg.Cache.StatusTTL)
	} else {
		log.Println("INFO: No cache address configured, generation status kept in memory.")
	}

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("WARN: No S3 bucket configured, sketches are disabled.")
	}

	// --- Generation ---
	if cfg.Generation.WebhookURL == "" {
		log.Println("WARN: No generation webhook configured, every generation request will fail.")
	}
	dispatcher := generation.NewWebhookDispatcher(cfg.Generation.WebhookURL, &http.Client{Timeout: 30 * time.Second})
	poller := generation.NewPoller(cfg.Generation.PollInterval, cfg.Generation.MaxAttempts, nil)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(stores.Users, cfg.JWT.Secret, cfg.JWT.Expiration)
	planService := service.NewPlanService(stores, cfg.Planning.DefaultMonthQuota)
	navigator := service.NewNavigator(planService, stores, fileStorage)
	sectionService := service.NewSectionService(stores, fileStorage)
	preferencesService := service.NewPreferencesService(stores, planService)
	generationService := service.NewGenerationService(stores, dispatcher, statuses, poller, func(ref domain.PlanRef) {
		log.Printf("INFO: Generated content for %s is available", ref)
	})

	// --- Initialize Gin Engine ---
	router := gin.Default()

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, planService, navigator, generationService, sectionService, preferencesService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second, // covers one webhook round trip
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}
	generationService.Shutdown()

	log.Println("Server exiting.")
}
