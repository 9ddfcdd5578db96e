package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rkoshti/cliptube-be/internal/api"
	"github.com/rkoshti/cliptube-be/internal/auth"
	"github.com/rkoshti/cliptube-be/internal/config"
	"github.com/rkoshti/cliptube-be/internal/database"
	"github.com/rkoshti/cliptube-be/internal/logger"
	"github.com/rkoshti/cliptube-be/internal/media"
	"github.com/rkoshti/cliptube-be/internal/monitoring"
	"github.com/rkoshti/cliptube-be/internal/services"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure the multipart staging directory exists
	if err := os.MkdirAll(cfg.TempUploadDir, 0755); err != nil {
		log.Fatalf("Failed to create temp upload directory: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up media object storage
	storage, err := media.NewStorage(context.Background(), media.Options{
		Endpoint:  cfg.MediaEndpoint,
		Region:    cfg.MediaRegion,
		Bucket:    cfg.MediaBucket,
		AccessKey: cfg.MediaAccessKey,
		SecretKey: cfg.MediaSecretKey,
		PublicURL: cfg.MediaPublicURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	// Set up services
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokenIssuer := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := services.NewUserService(db, hasher, tokenIssuer)
	videoService := services.NewVideoService(db)
	subscriptionService := services.NewSubscriptionService(db)

	// Set up and run the background staging-dir sweeper
	sweeper, err := monitoring.NewTempSweeper(cfg.TempUploadDir, cfg.TempSweepSpec, cfg.TempMaxAge)
	if err != nil {
		log.Fatalf("Failed to initialize temp sweeper: %v", err)
	}
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(api.RouterConfig{
		UserService:         userService,
		VideoService:        videoService,
		SubscriptionService: subscriptionService,
		TokenIssuer:         tokenIssuer,
		Uploader:            storage,
		TempUploadDir:       cfg.TempUploadDir,
		CORSOrigin:          cfg.CORSOrigin,
		SecureCookies:       cfg.SecureCookies,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
