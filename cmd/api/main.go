package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campusrate/campusrate-api/internal/config"
	"github.com/campusrate/campusrate-api/internal/database"
	"github.com/campusrate/campusrate-api/internal/handler"
	"github.com/campusrate/campusrate-api/internal/middleware"
	"github.com/campusrate/campusrate-api/internal/models"
	"github.com/campusrate/campusrate-api/internal/repository"
	"github.com/campusrate/campusrate-api/internal/router"
	"github.com/campusrate/campusrate-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Rating{}, &models.RatingTag{}, &models.Tag{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, summary caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, invalidation events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	ratingRepo := repository.NewRatingRepository(db)
	tagRepo := repository.NewTagRepository(db)

	if err := tagRepo.Seed(context.Background(), models.DefaultTags()); err != nil {
		log.Fatalf("failed to seed tag vocabulary: %v", err)
	}

	resolver := service.NewIdentityResolver(cfg.IdentitySecret)
	guard := service.NewAbuseGuard(ratingRepo, cfg.AuthCooldown, cfg.AnonCooldown, logger)
	ratingValidator := service.NewRatingValidator(cfg.ReviewMaxLength)
	gateway := service.NewRatingGateway(ratingRepo, tagRepo, resolver, guard, ratingValidator, redisClient, natsConn, cfg.GuardTimeout, cfg.WriteTimeout, logger)
	query := service.NewRatingQuery(ratingRepo, redisClient, cfg.SummaryCacheTTL, logger)

	ratingHandler := handler.NewRatingHandler(gateway, query, validate, logger)
	tagHandler := handler.NewTagHandler(tagRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		RatingHandler:  ratingHandler,
		TagHandler:     tagHandler,
		AuthMiddleware: middleware.OptionalAuth(cfg.JWTSecret),
		SubmitLimiter:  middleware.RateLimit("rating-submit", cfg.SubmitBurstLimit, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
