package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/individuals-mars/seller-admin/internal/cache"
	"github.com/individuals-mars/seller-admin/internal/config"
	"github.com/individuals-mars/seller-admin/internal/handler"
	"github.com/individuals-mars/seller-admin/internal/middleware"
	"github.com/individuals-mars/seller-admin/internal/service"
	"github.com/individuals-mars/seller-admin/internal/sse"
	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/internal/worker"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// main is the application entrypoint for the seller dashboard API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("backend", cfg.Backend.URL).Msg("starting seller admin api")

	// 3. Cache store: Redis when configured, otherwise in-process
	var store cache.Store = cache.NewMemoryStore()
	var cachePinger handler.Pinger
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		store = redisClient
		cachePinger = redisClient
		log.Info().Msg("redis connected successfully")
	}
	catalogCache := cache.NewCatalogCache(store, cfg.Cache.CategoryTTL)

	// 4. Initialize marketplace client
	client := marketplace.NewClient(marketplace.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Debug:   !cfg.IsProduction(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Image staging
	previews := staging.NewPreviews(cfg.Staging.PreviewBasePath)
	imagePolicy := staging.DefaultPolicy()
	imagePolicy.MaxBytes = cfg.Staging.MaxBytes
	logoPolicy := staging.LogoPolicy(cfg.Staging.LogoMaxBytes)

	if cfg.AWS.ModerationEnabled {
		moderation, err := service.NewModerationService(ctx, &cfg.AWS)
		if err != nil {
			log.Warn().Err(err).Msg("Moderation service initialization failed - images will not be screened")
		} else {
			imagePolicy.Screener = moderation
			logoPolicy.Screener = moderation
			log.Info().Float64("min_confidence", cfg.AWS.MinConfidence).Msg("Image moderation enabled")
		}
	}

	// 5a. Logo storage
	var logos service.LogoUploader
	if cfg.S3.Enabled() {
		s3Svc, err := service.NewS3Service(ctx, &cfg.S3)
		if err != nil {
			log.Warn().Err(err).Msg("S3 service initialization failed - logos will be sent to the backend")
		} else {
			logos = s3Svc
			log.Info().Str("bucket", cfg.S3.Bucket).Msg("Logos are stored in S3")
		}
	}

	// 6. Initialize services
	hub := sse.NewHub()
	shopSvc := service.NewShopService(client, hub)
	productSvc := service.NewProductService(client, catalogCache, hub)
	formSvc := service.NewFormService(client, service.NewShopGateway(client, logos), client, shopSvc, productSvc, hub, service.FormServiceConfig{
		Previews:    previews,
		ImagePolicy: imagePolicy,
		LogoPolicy:  logoPolicy,
		IdleTTL:     cfg.Worker.FormIdleTTL,
	})

	// 7. Initialize handlers
	handlers := &handler.Handlers{
		Health:  handler.NewHealthHandler(cachePinger, formSvc, hub),
		Shop:    handler.NewShopHandler(shopSvc, formSvc),
		Product: handler.NewProductHandler(productSvc),
		Form:    handler.NewFormHandler(formSvc, cfg.Staging.MaxBytes),
		Preview: handler.NewPreviewHandler(previews),
		SSE:     handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	limiter := middleware.NewInvalidAuthRateLimiter(5, time.Minute)
	defer limiter.Close()
	sessionMw := middleware.NewSessionMiddleware(limiter)

	// 9. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.MaxMultipartMemory = cfg.Staging.MaxBytes
	handler.SetupRoutes(router, handlers, sessionMw)

	// 10. Start workers
	go worker.NewFormSweeper(formSvc, cfg.Worker.SweepInterval).Start(ctx)
	go worker.NewCatalogWorker(productSvc, cfg.Worker.CatalogRefreshInterval).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers, then close the event streams so
	// open SSE requests return before Shutdown waits on them
	cancel()
	hub.Close()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// 15. Release open forms and mounted views
	formSvc.Close()
	shopSvc.Close()
	productSvc.Close()
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
