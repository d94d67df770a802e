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

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/grow-backend/internal/config"
	"github.com/AnshRaj112/grow-backend/internal/database"
	"github.com/AnshRaj112/grow-backend/internal/handlers"
	"github.com/AnshRaj112/grow-backend/internal/logger"
	"github.com/AnshRaj112/grow-backend/internal/middleware"
	"github.com/AnshRaj112/grow-backend/internal/routes"
	"github.com/AnshRaj112/grow-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info("connecting to Redis")
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		return err
	}
	defer rdb.Close()

	store, err := database.Open(ctx, cfg, rdb, zlog)
	if err != nil {
		return err
	}
	defer store.Close()

	codec, err := services.NewCodecFromKey(cfg.EncryptionKey)
	if err != nil {
		return err
	}
	if cfg.EncryptionKey == "" {
		zlog.Warn("ENCRYPTION_KEY not set; journal records are stored unencrypted (generate one with: openssl rand -base64 32)")
	} else {
		zlog.Info("encryption at rest enabled")
	}

	events := services.NewJournalEvents(rdb, zlog)
	journal := services.NewJournalService(store, codec, events, zlog)
	gallery := services.NewGalleryService(store, codec, zlog)
	accounts := services.NewAccountService(store, codec, zlog)
	sessions := services.NewSessionService(rdb, cfg.SessionTTL)

	var uploader services.ImageUploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			zlog.Warn("failed to initialize Cloudinary; file uploads will not be available", zap.Error(err))
		} else {
			uploader = cld
			zlog.Info("Cloudinary service initialized")
		}
	} else {
		zlog.Warn("Cloudinary credentials not found; file uploads will not be available")
	}

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, cfg.TrustProxy,
		"Too many requests. Please slow down.")
	authLimiter := middleware.NewRateLimiter(rate.Every(5*time.Second), 3, cfg.TrustProxy,
		"Too many login attempts. Please try again later.")
	go limiter.Run(ctx)
	go authLimiter.Run(ctx)

	router := routes.Router{
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
		RequestTimeout: cfg.RequestTimeout,
		Log:            zlog,
		Sessions:       sessions,
		RateLimiter:    limiter,
		AuthLimiter:    authLimiter,
		Journal:        handlers.NewJournalHandler(journal, zlog),
		Gallery:        handlers.NewGalleryHandler(gallery, zlog),
		Upload:         handlers.NewUploadHandler(uploader, gallery, journal, cfg.UploadMaxBytes, cfg.UploadMaxFiles, zlog),
		Auth:           handlers.NewAuthHandler(accounts, sessions, zlog),
		Events:         handlers.NewEventsHandler(sessions, events, cfg.AllowedOrigins, zlog),
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("Grow backend listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           routes.MetricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			zlog.Info("metrics listening", zap.String("addr", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zlog.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if metricsSrv != nil {
		metricsSrv.Shutdown(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}
