package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

// TrainingCoordinator is the retraining control surface the handler needs.
type TrainingCoordinator interface {
	Trigger() error
	Status() models.TrainingStatusResponse
}

type TrainingHandler struct {
	service TrainingCoordinator
	logger  *logrus.Logger
}

func NewTrainingHandler(service TrainingCoordinator, logger *logrus.Logger) *TrainingHandler {
	return &TrainingHandler{
		service: service,
		logger:  logger,
	}
}

// Retrain starts a background training run. While one is active the
// trigger is rejected, not queued; the current model keeps serving either
// way.
func (h *TrainingHandler) Retrain(c *gin.Context) {
	if err := h.service.Trigger(); err != nil {
		if errors.Is(err, recommender.ErrRetrainInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"code":    "RETRAIN_IN_PROGRESS",
					"message": "A training run is already active",
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to trigger training run")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RETRAIN_TRIGGER_FAILED",
				"message": "Failed to trigger training run",
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Training run started",
	})
}

func (h *TrainingHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}
