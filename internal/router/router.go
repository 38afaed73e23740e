package router

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenochat-app/backend/internal/auth"
	"github.com/xenochat-app/backend/internal/handlers"
	"github.com/xenochat-app/backend/internal/middleware"
	"github.com/xenochat-app/backend/internal/repositories"
)

// SetupMiddleware configures global Echo middleware. CORS allows
// credentials so the SPA can carry the session cookie.
func SetupMiddleware(e *echo.Echo, logger zerolog.Logger, clientOrigin string) {
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{clientOrigin},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Metrics())
}

// SetupRoutes wires repositories, handlers and route groups, and creates
// the store indexes the invariants rely on.
func SetupRoutes(e *echo.Echo, db *mongo.Database, sessions *auth.SessionIssuer, chat handlers.ChatProvider, assets handlers.AssetUploader) error {
	userRepo := repositories.NewMongoUserRepository(db)
	requestRepo := repositories.NewMongoFriendRequestRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := requestRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	requireSession := middleware.SessionAuth(sessions, userRepo)

	authHandler := handlers.NewAuthHandler(userRepo, sessions, chat, assets)
	authHandler.RegisterAuthRoutes(e.Group("/api/auth"), requireSession)

	userHandler := handlers.NewUserHandler(userRepo, requestRepo)
	userHandler.RegisterUserRoutes(e.Group("/api/users", requireSession))

	chatHandler := handlers.NewChatHandler(chat)
	chatHandler.RegisterChatRoutes(e.Group("/api/chat", requireSession))

	return nil
}
