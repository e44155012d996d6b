package models

import "time"

// Model tags reported on every recommendation response.
const (
	ModelCollaborativeFiltering = "collaborative_filtering"
	ModelPopularity             = "popularity"
)

type RecommendedItem struct {
	ItemID   string  `json:"item_id"`
	Score    float64 `json:"score"`
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

type RecommendationResponse struct {
	UserID          string            `json:"user_id"`
	Recommendations []RecommendedItem `json:"recommendations"`
	Model           string            `json:"model"`
	GeneratedAt     time.Time         `json:"generated_at"`
	CacheHit        bool              `json:"cache_hit"`
}

type SimilarItemsResponse struct {
	ItemID  string            `json:"item_id"`
	Similar []RecommendedItem `json:"similar"`
}

// TrainingMetrics is the metadata bundle carried by a model snapshot.
type TrainingMetrics struct {
	TrainedAt     time.Time `json:"trained_at"`
	NumUsers      int       `json:"n_users"`
	NumItems      int       `json:"n_items"`
	NumRatings    int       `json:"n_ratings"`
	HitRate       float64   `json:"hit_rate"`
	TrainDuration float64   `json:"train_duration_seconds"`
}

type TrainingStatusResponse struct {
	State         string           `json:"state"`
	LastTrainedAt *time.Time       `json:"last_trained_at,omitempty"`
	Metrics       *TrainingMetrics `json:"metrics,omitempty"`
}
