package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/internal/config"
	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/internal/storage"
	"github.com/explora/recsys/pkg/models"
)

// RecommendationService is the serving path. Every request loads the
// active snapshot exactly once and works against it throughout, so a
// concurrent snapshot swap can never leave a request with mixed model
// state. Users absent from the snapshot (or served before any model has
// been trained) fall back to the popularity ranking.
type RecommendationService struct {
	modelRef     *recommender.ModelRef
	cache        ResultCache
	interactions storage.InteractionStore
	catalog      storage.CatalogStore
	config       *config.ServingSection
	logger       *logrus.Logger
	metrics      *MetricsCollector
}

func NewRecommendationService(
	modelRef *recommender.ModelRef,
	cache ResultCache,
	interactions storage.InteractionStore,
	catalog storage.CatalogStore,
	cfg *config.ServingSection,
	logger *logrus.Logger,
	metrics *MetricsCollector,
) *RecommendationService {
	return &RecommendationService{
		modelRef:     modelRef,
		cache:        cache,
		interactions: interactions,
		catalog:      catalog,
		config:       cfg,
		logger:       logger,
		metrics:      metrics,
	}
}

// Recommend returns the top-k experiences for userID. Items the user has
// already interacted with are excluded. The response reports which model
// produced it; an unknown user is not an error here.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, k int) (*models.RecommendationResponse, error) {
	if userID == "" || k <= 0 || (s.config.MaxTopK > 0 && k > s.config.MaxTopK) {
		return nil, fmt.Errorf("%w: user_id=%q top_k=%d", recommender.ErrInvalidArgument, userID, k)
	}

	if cached, err := s.cache.Get(ctx, userID, k); err != nil {
		s.logger.WithError(err).Warn("Result cache read failed")
	} else if cached != nil {
		s.metrics.RecordCacheHit()
		cached.CacheHit = true
		return cached, nil
	}
	s.metrics.RecordCacheMiss()

	snapshot := s.modelRef.Active()

	// Seen items are excluded from both serving paths. A store failure
	// here only disables exclusion; it must not fail the request.
	exclude := s.seenItems(ctx, userID)

	var (
		scored []recommender.ScoredIndex
		model  string
		err    error
	)
	if snapshot != nil && snapshot.KnowsUser(userID) {
		scored, err = snapshot.TopKForUser(userID, k, exclude)
		if err != nil {
			return nil, err
		}
		model = models.ModelCollaborativeFiltering
	} else {
		scored, err = s.popularityFallback(ctx, k, exclude)
		if err != nil {
			return nil, err
		}
		model = models.ModelPopularity
	}

	resp, err := s.assembleResponse(ctx, userID, scored, model)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecommendation(model)

	if err := s.cache.Set(ctx, userID, k, resp, s.config.CacheTTL); err != nil {
		s.logger.WithError(err).Warn("Result cache write failed")
	}
	return resp, nil
}

// Similar returns the k nearest items to itemID in factor space. Unlike
// Recommend, an identifier absent from the active snapshot is an error:
// there is no meaningful fallback for item similarity.
func (s *RecommendationService) Similar(ctx context.Context, itemID string, k int) (*models.SimilarItemsResponse, error) {
	if itemID == "" || k <= 0 || (s.config.MaxTopK > 0 && k > s.config.MaxTopK) {
		return nil, fmt.Errorf("%w: item_id=%q top_k=%d", recommender.ErrInvalidArgument, itemID, k)
	}

	snapshot := s.modelRef.Active()
	if snapshot == nil {
		return nil, fmt.Errorf("%w: no trained model", recommender.ErrUnknownIdentifier)
	}

	scored, err := snapshot.SimilarItems(itemID, k)
	if err != nil {
		return nil, err
	}

	items, err := s.catalog.ItemsByIDs(ctx, scoredIDs(scored))
	if err != nil {
		s.logger.WithError(err).Warn("Catalog metadata lookup failed for similar items")
		items = map[string]models.Experience{}
	}

	resp := &models.SimilarItemsResponse{ItemID: itemID}
	for _, sc := range scored {
		rec := models.RecommendedItem{ItemID: sc.ItemID, Score: sc.Score}
		if item, ok := items[sc.ItemID]; ok {
			rec.Name = item.Name
			rec.Category = item.Category
			rec.Rating = item.Rating
		}
		resp.Similar = append(resp.Similar, rec)
	}
	return resp, nil
}

func (s *RecommendationService) seenItems(ctx context.Context, userID string) map[string]bool {
	ids, err := s.interactions.UserItemIDs(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Could not load seen items")
		return nil
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen
}

func (s *RecommendationService) popularityFallback(ctx context.Context, k int, exclude map[string]bool) ([]recommender.ScoredIndex, error) {
	items, err := s.catalog.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(exclude) > 0 {
		kept := items[:0]
		for _, item := range items {
			if !exclude[item.ID] {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	return recommender.RankByPopularity(items, k), nil
}

func (s *RecommendationService) assembleResponse(ctx context.Context, userID string, scored []recommender.ScoredIndex, model string) (*models.RecommendationResponse, error) {
	items, err := s.catalog.ItemsByIDs(ctx, scoredIDs(scored))
	if err != nil {
		s.logger.WithError(err).Warn("Catalog metadata lookup failed")
		items = map[string]models.Experience{}
	}

	resp := &models.RecommendationResponse{
		UserID:          userID,
		Model:           model,
		GeneratedAt:     time.Now().UTC(),
		Recommendations: make([]models.RecommendedItem, 0, len(scored)),
	}
	for _, sc := range scored {
		rec := models.RecommendedItem{ItemID: sc.ItemID, Score: sc.Score}
		if item, ok := items[sc.ItemID]; ok {
			rec.Name = item.Name
			rec.Category = item.Category
			rec.Rating = item.Rating
		}
		resp.Recommendations = append(resp.Recommendations, rec)
	}
	return resp, nil
}

func scoredIDs(scored []recommender.ScoredIndex) []string {
	ids := make([]string, len(scored))
	for i, sc := range scored {
		ids[i] = sc.ItemID
	}
	return ids
}
