package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/database"
	"github.com/explora/recsys/internal/recommender"
)

type HealthService struct {
	db       *database.Database
	modelRef *recommender.ModelRef
	logger   *logrus.Logger
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	// ModelLoaded is false until the first snapshot has been published;
	// the service still serves popularity results in that state.
	ModelLoaded bool `json:"model_loaded"`
}

func NewHealthService(db *database.Database, modelRef *recommender.ModelRef, logger *logrus.Logger) *HealthService {
	return &HealthService{db: db, modelRef: modelRef, logger: logger}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Services:    make(map[string]string),
		ModelLoaded: s.modelRef.Active() != nil,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if s.db != nil && s.db.PG != nil {
		if err := s.db.PG.Ping(checkCtx); err != nil {
			status.Services["postgres"] = "unhealthy"
			status.Status = "degraded"
			s.logger.WithError(err).Warn("PostgreSQL health check failed")
		} else {
			status.Services["postgres"] = "healthy"
		}
	}

	if s.db != nil && s.db.Redis != nil {
		if err := s.db.Redis.Ping(checkCtx).Err(); err != nil {
			status.Services["redis"] = "unhealthy"
			status.Status = "degraded"
			s.logger.WithError(err).Warn("Redis health check failed")
		} else {
			status.Services["redis"] = "healthy"
		}
	}

	return status
}
