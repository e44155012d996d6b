package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/config"
	"github.com/explora/recsys/internal/database"
	"github.com/explora/recsys/internal/handlers"
	"github.com/explora/recsys/internal/messaging"
	"github.com/explora/recsys/internal/middleware"
	"github.com/explora/recsys/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine

	consumer       *messaging.InteractionConsumer
	consumerCancel context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	services, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	app.handlers = handlers.New(app.logger, services)
	app.setupRouter()

	// Periodic retraining runs for the life of the process.
	services.Training.Start()

	if cfg.Kafka.Enabled {
		consumer, err := messaging.NewInteractionConsumer(cfg, services.Interaction, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize interaction consumer: %w", err)
		}
		app.consumer = consumer

		ctx, cancel := context.WithCancel(context.Background())
		app.consumerCancel = cancel
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				app.logger.WithError(err).Error("Interaction consumer stopped")
			}
		}()
	}

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	a.services.Training.Stop()

	if a.consumer != nil {
		a.consumerCancel()
		if err := a.consumer.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing interaction consumer")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	// Health check endpoint (no auth required)
	router.GET("/health", a.handlers.Health.Check)

	// Prometheus metrics endpoint (no auth required)
	if a.config.Monitoring.Enabled {
		router.GET(a.config.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	// API routes
	api := router.Group("/api")
	{
		api.Use(middleware.Auth(a.services.Auth, a.logger))

		api.POST("/interactions", a.handlers.Interaction.Record)

		recommendations := api.Group("/recommendations")
		{
			recommendations.GET("/:userId", a.handlers.Recommendation.Get)
			recommendations.GET("/similar/:itemId", a.handlers.Recommendation.GetSimilar)
		}

		training := api.Group("/training")
		{
			training.Use(middleware.RequireAdmin())
			training.POST("/retrain", a.handlers.Training.Retrain)
			training.GET("/status", a.handlers.Training.Status)
		}
	}

	a.router = router
}
