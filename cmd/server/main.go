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

	"github.com/anonto42/careerconnect/backend/internal/auth"
	"github.com/anonto42/careerconnect/backend/internal/handlers"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/anonto42/careerconnect/backend/internal/repositories/memstore"
	"github.com/anonto42/careerconnect/backend/internal/router"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/anonto42/careerconnect/backend/pkg/config"
	"github.com/anonto42/careerconnect/backend/pkg/firebase"
	"github.com/anonto42/careerconnect/backend/pkg/logger"
	"github.com/anonto42/careerconnect/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.JWTSecret == "" {
		zl.Fatal("JWT_SECRET environment variable not set")
	}
	scope, err := services.ParseUnreadScope(cfg.UnreadScope)
	if err != nil {
		zl.Fatal("invalid UNREAD_SCOPE", zap.Error(err))
	}

	ctx := context.Background()

	repos, closeStore, err := openStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize storage", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	// Firebase is optional; a nil client disables /auth/firebase-login
	var verifier handlers.IDTokenVerifier
	fbClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath, zl)
	if err != nil {
		zl.Fatal("failed to initialize firebase", zap.Error(err))
	}
	if fbClient != nil {
		verifier = fbClient
	}

	gateway := realtime.NewGateway(zl.Named("realtime"))
	gateway.Init()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg, zl)
	router.SetupRoutes(e, router.Dependencies{
		Repos:       repos,
		Gateway:     gateway,
		Tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		Firebase:    verifier,
		UnreadScope: scope,
		WSOrigins:   cfg.CORSOrigins,
		Logger:      zl,
	})

	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zl.Info("shutting down", zap.String("signal", sig.String()))

	gateway.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown failed", zap.Error(err))
	}
}

// openStore selects the repositories for cfg.StoreDriver and returns a matching close func.
func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (router.Repositories, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		zl.Warn("using in-memory store, data is lost on restart")
		store := memstore.New()
		return router.Repositories{
			Users:         store.Users,
			Connections:   store.Connections,
			Posts:         store.Posts,
			Conversations: store.Conversations,
			Messages:      store.Messages,
			Notifications: store.Notifications,
			Likes:         store.Likes,
			Comments:      store.Comments,
		}, func() {}, nil

	case config.DriverMongo:
		db, err := config.InitDB(cfg, zl)
		if err != nil {
			return router.Repositories{}, nil, err
		}
		if err := db.Postgres.AutoMigrate(&models.User{}, &models.ConnectionRequest{}, &models.Like{}, &models.Comment{}); err != nil {
			db.CloseDB()
			return router.Repositories{}, nil, err
		}
		zl.Info("PostgreSQL auto-migrations completed")

		mdb := db.Mongo.Database(cfg.MongoDatabase)
		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := repositories.EnsureIndexes(indexCtx, mdb); err != nil {
			db.CloseDB()
			return router.Repositories{}, nil, err
		}
		zl.Info("MongoDB indexes ensured", zap.String("database", cfg.MongoDatabase))

		return router.Repositories{
			Users:         repositories.NewPostgresUserRepository(db.Postgres),
			Connections:   repositories.NewPostgresConnectionRepository(db.Postgres),
			Posts:         repositories.NewMongoPostRepository(mdb),
			Conversations: repositories.NewMongoConversationRepository(mdb),
			Messages:      repositories.NewMongoMessageRepository(mdb),
			Notifications: repositories.NewMongoNotificationRepository(mdb),
			Likes:         repositories.NewPostgresLikeRepository(db.Postgres),
			Comments:      repositories.NewPostgresCommentRepository(db.Postgres),
		}, db.CloseDB, nil

	default:
		return router.Repositories{}, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
	}
}
