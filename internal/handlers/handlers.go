package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Interaction    *InteractionHandler
	Recommendation *RecommendationHandler
	Training       *TrainingHandler
}

func New(logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Interaction:    NewInteractionHandler(logger, services.Interaction),
		Recommendation: NewRecommendationHandler(services.Recommendation, logger),
		Training:       NewTrainingHandler(services.Training, logger),
	}
}
