package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quoteflow/internal/cache"
	"quoteflow/internal/config"
	"quoteflow/internal/repository"
	"quoteflow/internal/service"
	"quoteflow/internal/transport/rest"
	"quoteflow/internal/transport/ws"
)

// @title Quoteflow API
// @version 1.0
// @description Embeddable quote-calculator widget backend with survey wizard engine
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database("quoteflow")

	// Redis connection
	redisAddr := cfg.RedisAddr
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	toolRepo := repository.NewToolRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	leadRepo := repository.NewLeadRepo(db)

	// Initialize caches
	toolCache := cache.NewToolCache(rdb)
	sessionCache := cache.NewSessionCache(rdb)

	// Initialize external clients
	ghlClient := service.NewGHLClient(cfg.GHLBaseURL, cfg.GHLAPIKey)
	geocoder := service.NewGeocodeClient(cfg.GeocoderBaseURL, cfg.GeocoderAPIKey)
	areaClient := service.NewServiceAreaClient(cfg.ServiceAreaBaseURL)
	quoteClient := service.NewQuoteClient(cfg.QuoteBaseURL)

	// Initialize services
	authSvc := service.NewAuthService()
	toolSvc := service.NewToolService(toolRepo, toolCache)
	contactSvc := service.NewContactService(ghlClient, sessionCache)
	verifier := service.NewVerificationService(geocoder, areaClient, contactSvc, leadRepo, sessionCache)
	wizardSvc := service.NewWizardService(toolSvc, sessionCache, sessionRepo, contactSvc, verifier, quoteClient)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	wizardSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:   authSvc,
		ToolService:   toolSvc,
		WizardService: wizardSvc,
		WSHub:         wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST/GET /v1/tools")
		log.Println("  GET  /v1/tools/{toolId}/widget")
		log.Println("  POST /v1/tools/{toolId}/sessions")
		log.Println("  POST /v1/sessions/{sessionId}/next")
		log.Println("  WS   /v1/ws/tools/{toolId}/dashboard")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
