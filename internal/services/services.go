package services

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/config"
	"github.com/explora/recsys/internal/database"
	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/internal/storage"
)

type Services struct {
	Auth           *AuthService
	Health         *HealthService
	Interaction    *InteractionService
	Recommendation *RecommendationService
	Training       *TrainingService
	ModelRef       *recommender.ModelRef
	Cache          ResultCache
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	modelRef := &recommender.ModelRef{}

	// Serve the last trained model across restarts. Absent or corrupt
	// snapshot files just mean popularity-only serving until the first
	// training run.
	if path := cfg.Recommendation.Training.SnapshotPath; path != "" {
		snapshot, err := recommender.LoadSnapshot(path)
		switch {
		case err == nil:
			modelRef.Publish(snapshot)
			logger.WithFields(logrus.Fields{
				"users": snapshot.NumUsers(),
				"items": snapshot.NumItems(),
			}).Info("Restored model snapshot from disk")
		case os.IsNotExist(err):
			logger.Info("No persisted model snapshot; serving popularity until first training run")
		default:
			logger.WithError(err).Warn("Could not restore persisted model snapshot")
		}
	}

	interactionStore := storage.NewPostgresInteractionStore(db.PG, logger)
	catalogStore := storage.NewPostgresCatalogStore(db.PG, logger)
	cache := NewRedisResultCache(db.Redis, logger)
	metrics := NewMetricsCollector()

	return &Services{
		Auth:        NewAuthService(cfg, logger),
		Health:      NewHealthService(db, modelRef, logger),
		Interaction: NewInteractionService(interactionStore, logger),
		Recommendation: NewRecommendationService(
			modelRef, cache, interactionStore, catalogStore,
			&cfg.Recommendation.Serving, logger, metrics,
		),
		Training: NewTrainingService(
			interactionStore, modelRef, cache,
			&cfg.Recommendation, logger, metrics,
		),
		ModelRef: modelRef,
		Cache:    cache,
	}, nil
}
