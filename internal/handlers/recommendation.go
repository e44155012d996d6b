package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

// RecommendationProvider is the serving surface the handler needs.
type RecommendationProvider interface {
	Recommend(ctx context.Context, userID string, k int) (*models.RecommendationResponse, error)
	Similar(ctx context.Context, itemID string, k int) (*models.SimilarItemsResponse, error)
}

type RecommendationHandler struct {
	service RecommendationProvider
	logger  *logrus.Logger
}

func NewRecommendationHandler(service RecommendationProvider, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RecommendationHandler) Get(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "User ID is required",
			},
		})
		return
	}

	k, ok := parseTopK(c)
	if !ok {
		return
	}

	result, err := h.service.Recommend(c.Request.Context(), userID, k)
	if err != nil {
		if errors.Is(err, recommender.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOP_K",
					"message": err.Error(),
				},
			})
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to generate recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "RECOMMENDATION_GENERATION_FAILED",
				"message": "Failed to generate recommendations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *RecommendationHandler) GetSimilar(c *gin.Context) {
	itemID := c.Param("itemId")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_ITEM_ID",
				"message": "Item ID is required",
			},
		})
		return
	}

	k, ok := parseTopK(c)
	if !ok {
		return
	}

	result, err := h.service.Similar(c.Request.Context(), itemID, k)
	if err != nil {
		switch {
		case errors.Is(err, recommender.ErrUnknownIdentifier):
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "ITEM_NOT_FOUND",
					"message": "Item is not part of the current model",
				},
			})
		case errors.Is(err, recommender.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOP_K",
					"message": err.Error(),
				},
			})
		default:
			h.logger.WithError(err).WithField("item_id", itemID).Error("Failed to compute similar items")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "SIMILAR_ITEMS_FAILED",
					"message": "Failed to compute similar items",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseTopK reads the top_k query parameter. Out-of-range values are a
// caller error, not something to silently clamp.
func parseTopK(c *gin.Context) (int, bool) {
	k := 10
	if kStr := c.Query("top_k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOP_K",
					"message": "top_k must be an integer",
				},
			})
			return 0, false
		}
		k = parsed
	}
	return k, true
}
