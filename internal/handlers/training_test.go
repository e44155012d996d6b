package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

// MockTrainingCoordinator is a mock implementation for testing
type MockTrainingCoordinator struct {
	mock.Mock
}

func (m *MockTrainingCoordinator) Trigger() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTrainingCoordinator) Status() models.TrainingStatusResponse {
	args := m.Called()
	return args.Get(0).(models.TrainingStatusResponse)
}

func setupTrainingRouter(svc TrainingCoordinator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTrainingHandler(svc, handlerLogger())

	router := gin.New()
	router.POST("/api/training/retrain", h.Retrain)
	router.GET("/api/training/status", h.Status)
	return router
}

func TestTrainingHandler_Retrain(t *testing.T) {
	tests := []struct {
		name           string
		triggerErr     error
		expectedStatus int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"already running", recommender.ErrRetrainInProgress, http.StatusConflict},
		{"unexpected failure", recommender.ErrCollaboratorUnavailable, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &MockTrainingCoordinator{}
			mockSvc.On("Trigger").Return(tt.triggerErr)
			router := setupTrainingRouter(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/api/training/retrain", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestTrainingHandler_Status(t *testing.T) {
	trainedAt := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	mockSvc := &MockTrainingCoordinator{}
	mockSvc.On("Status").Return(models.TrainingStatusResponse{
		State:         "idle",
		LastTrainedAt: &trainedAt,
		Metrics: &models.TrainingMetrics{
			TrainedAt: trainedAt,
			NumUsers:  120,
			NumItems:  48,
			HitRate:   0.31,
		},
	})
	router := setupTrainingRouter(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/training/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TrainingStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp.State)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 120, resp.Metrics.NumUsers)
	assert.InDelta(t, 0.31, resp.Metrics.HitRate, 1e-9)
}
