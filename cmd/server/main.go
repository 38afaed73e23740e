package main

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xenochat-app/backend/internal/auth"
	"github.com/xenochat-app/backend/internal/router"
	"github.com/xenochat-app/backend/pkg/cloudinary"
	"github.com/xenochat-app/backend/pkg/config"
	"github.com/xenochat-app/backend/pkg/logger"
	"github.com/xenochat-app/backend/pkg/stream"
	"github.com/xenochat-app/backend/validators"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.New(cfg.Env)
	log.Logger = logg

	mongoClient, err := config.InitMongo(cfg.MongoURI)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := config.CloseMongo(mongoClient); err != nil {
			logg.Error().Err(err).Msg("error closing MongoDB connection")
		}
	}()
	logg.Info().Msg("connected to MongoDB")

	chatClient, err := stream.New(cfg.StreamAPIKey, cfg.StreamAPISecret)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to initialize chat provider client")
	}

	assetClient, err := cloudinary.New(cfg.CloudinaryURL)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to initialize asset host client")
	}

	sessions := auth.NewSessionIssuer(cfg.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, logg, cfg.ClientOrigin)
	if err := router.SetupRoutes(e, mongoClient.Database(cfg.MongoDB), sessions, chatClient, assetClient); err != nil {
		logg.Fatal().Err(err).Msg("failed to set up routes")
	}

	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal().Err(err).Msg("server stopped")
	}
}
