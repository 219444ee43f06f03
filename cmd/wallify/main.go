package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/digkill/wallify/internal/billing"
	"github.com/digkill/wallify/internal/config"
	"github.com/digkill/wallify/internal/database"
	"github.com/digkill/wallify/internal/replicate"
	"github.com/digkill/wallify/internal/repository"
	"github.com/digkill/wallify/internal/service"
	"github.com/digkill/wallify/internal/session"
	"github.com/digkill/wallify/internal/storage"
	"github.com/digkill/wallify/internal/web"
	"github.com/digkill/wallify/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	uploader, err := storage.NewUploader(storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
		UsePathStyle:  cfg.S3UsePathStyle,
		Prefix:        cfg.S3Prefix,
		PublicRead:    cfg.S3PublicRead,
	})
	if err != nil {
		log.Fatalf("storage uploader: %v", err)
	}

	replicateClient := replicate.NewClient(cfg, logr)
	gateway := billing.NewGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if cfg.StripeWebhookSecret == "" {
		logr.Warn("STRIPE_WEBHOOK_SECRET is not set, webhook deliveries will be rejected")
	}

	userRepo := repository.NewUserRepository(db)
	imageRepo := repository.NewImageRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	searchRepo := repository.NewSearchLogRepository(db)
	generationRepo := repository.NewGenerationRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	server := web.NewServer(cfg.ListenAddr, web.Deps{
		Log:           logr,
		Sessions:      session.New(rdb, cfg.SessionTTL),
		Auth:          service.NewAuthService(logr, userRepo),
		Gallery:       service.NewGalleryService(logr, imageRepo, favoriteRepo, searchRepo, uploader),
		Generation:    service.NewGenerationService(logr, userRepo, generationRepo, imageRepo, uploader, replicateClient, cfg.FreeDailyGenerations),
		Profiles:      service.NewProfileService(logr, userRepo, imageRepo, favoriteRepo, uploader),
		Payments:      service.NewPaymentService(logr, userRepo, paymentRepo, gateway, cfg.StripePriceID, cfg.AppBaseURL),
		Support:       service.NewSupportService(logr, supportRepo),
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		CookieSecure:  cfg.SessionCookieSecure,
	})

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("http server stopped", "err", err)
	}
}
