package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

// InteractionRecorder is the write path the handler needs.
type InteractionRecorder interface {
	Record(ctx context.Context, req models.InteractionRequest) (*models.Interaction, error)
}

type InteractionHandler struct {
	logger    *logrus.Logger
	service   InteractionRecorder
	validator *validator.Validate
}

func NewInteractionHandler(logger *logrus.Logger, service InteractionRecorder) *InteractionHandler {
	return &InteractionHandler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *InteractionHandler) Record(c *gin.Context) {
	var req models.InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to bind interaction request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid request format",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.logger.WithError(err).Error("Validation failed for interaction request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Request validation failed",
				"details": err.Error(),
			},
		})
		return
	}

	interaction, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, recommender.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_INTERACTION",
					"message": err.Error(),
				},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to record interaction")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERACTION_FAILED",
				"message": "Failed to record interaction",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":    interaction,
		"message": "Interaction recorded successfully",
	})
}
