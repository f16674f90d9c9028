package router

import (
	"github.com/anonto42/careerconnect/backend/internal/auth"
	"github.com/anonto42/careerconnect/backend/internal/handlers"
	"github.com/anonto42/careerconnect/backend/internal/middleware"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Repositories is the storage the routes run on, either the database-backed
// implementations or memstore.
type Repositories struct {
	Users         repositories.UserRepository
	Connections   repositories.ConnectionRepository
	Posts         repositories.PostRepository
	Conversations repositories.ConversationRepository
	Messages      repositories.MessageRepository
	Notifications repositories.NotificationRepository
	Likes         repositories.LikeRepository
	Comments      repositories.CommentRepository
}

// Dependencies holds everything SetupRoutes wires into handlers
type Dependencies struct {
	Repos       Repositories
	Gateway     *realtime.Gateway
	Tokens      *auth.TokenManager
	Firebase    handlers.IDTokenVerifier
	UnreadScope services.UnreadScope
	WSOrigins   []string
	Logger      *zap.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	repos := deps.Repos

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Services ---
	authn := auth.NewAuthenticator(deps.Tokens, repos.Users)
	unread := services.NewUnreadService(repos.Messages, repos.Notifications, repos.Conversations, deps.UnreadScope)
	notifications := services.NewNotificationService(repos.Notifications, repos.Users, unread, deps.Gateway, logger)
	messaging := services.NewMessagingService(repos.Conversations, repos.Messages, repos.Users, notifications, deps.Gateway, logger)

	// --- Realtime socket; authenticates during the handshake itself ---
	wsHandler := realtime.NewHandler(deps.Gateway, authn, repos.Conversations, deps.WSOrigins, logger)
	e.GET("/ws", wsHandler.Serve)
	logger.Debug("realtime endpoint configured", zap.String("path", "/ws"))

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(repos.Users, deps.Tokens, deps.Firebase, logger)
	authHandler.RegisterAuthRoutes(authGroup)
	logger.Debug("auth routes configured", zap.Bool("firebase_login", deps.Firebase != nil))

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(authn))

	userHandler := handlers.NewUserHandler(repos.Users, logger)
	userHandler.RegisterProfileRoutes(api)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	userHandler.RegisterAdminRoutes(admin)

	postHandler := handlers.NewPostHandler(repos.Posts, repos.Users, deps.Gateway, logger)
	postHandler.RegisterPostRoutes(api)

	likeHandler := handlers.NewLikeHandler(repos.Likes, repos.Posts, repos.Users, notifications, logger)
	likeHandler.RegisterLikeRoutes(api)

	commentHandler := handlers.NewCommentHandler(repos.Comments, repos.Posts, repos.Users, notifications, logger)
	commentHandler.RegisterCommentRoutes(api)

	connectionHandler := handlers.NewConnectionHandler(repos.Connections, repos.Users, notifications, logger)
	connectionHandler.RegisterConnectionRoutes(api)

	conversationHandler := handlers.NewConversationHandler(messaging)
	conversationHandler.RegisterConversationRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notifications, unread)
	notificationHandler.RegisterNotificationRoutes(api)

	logger.Info("routes configured", zap.Int("count", len(e.Routes())))
}
