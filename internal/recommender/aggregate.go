package recommender

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/explora/recsys/pkg/models"
)

// implicitRatings maps an interaction kind to the rating it stands in for
// when no explicit rating was given. A booking or a completed experience is
// the strongest possible signal.
var implicitRatings = map[string]float64{
	models.InteractionView:      1.0,
	models.InteractionClick:     2.0,
	models.InteractionWishlist:  3.0,
	models.InteractionBooking:   5.0,
	models.InteractionCompleted: 5.0,
}

// RatedPair is one aggregated (user, item, rating) triple. After
// aggregation there is at most one triple per (user, item) pair.
type RatedPair struct {
	UserID string
	ItemID string
	Rating float64
}

// AggregatorConfig controls the post-aggregation density filter. Users and
// items with fewer interactions than the minimum are dropped iteratively
// until the set is stable.
type AggregatorConfig struct {
	MinUserInteractions int
	MinItemInteractions int
}

// Aggregator collapses the raw interaction history into one rating per
// (user, item) pair. Duplicate interactions for a pair resolve last-wins:
// the record with the latest timestamp overwrites earlier ones, so a view
// followed by a booking ends up as a 5.0.
type Aggregator struct {
	config AggregatorConfig
	logger *logrus.Logger
}

func NewAggregator(config AggregatorConfig, logger *logrus.Logger) *Aggregator {
	return &Aggregator{config: config, logger: logger}
}

// Aggregate produces unique, density-filtered rating triples sorted by
// (user, item) so that downstream encoder fitting is deterministic.
// An empty result is an error: training on nothing must fail loudly.
func (a *Aggregator) Aggregate(interactions []models.Interaction) ([]RatedPair, error) {
	if len(interactions) == 0 {
		return nil, ErrInsufficientTrainingData
	}

	ordered := make([]models.Interaction, len(interactions))
	copy(ordered, interactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	type pairKey struct{ user, item string }
	ratings := make(map[pairKey]float64)
	for _, rec := range ordered {
		rating, ok := a.ratingFor(rec)
		if !ok {
			a.logger.WithFields(logrus.Fields{
				"interaction_type": rec.InteractionType,
				"user_id":          rec.UserID,
			}).Warn("Skipping interaction with unknown kind")
			continue
		}
		ratings[pairKey{rec.UserID, rec.ItemID}] = rating
	}

	pairs := make([]RatedPair, 0, len(ratings))
	for key, rating := range ratings {
		pairs = append(pairs, RatedPair{UserID: key.user, ItemID: key.item, Rating: rating})
	}

	pairs = a.filterSparse(pairs)
	if len(pairs) == 0 {
		return nil, ErrInsufficientTrainingData
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].UserID != pairs[j].UserID {
			return pairs[i].UserID < pairs[j].UserID
		}
		return pairs[i].ItemID < pairs[j].ItemID
	})

	a.logger.WithFields(logrus.Fields{
		"raw":        len(interactions),
		"aggregated": len(pairs),
	}).Info("Interaction aggregation complete")

	return pairs, nil
}

func (a *Aggregator) ratingFor(rec models.Interaction) (float64, bool) {
	if rec.InteractionType == models.InteractionRating {
		if rec.Rating == nil {
			return 0, false
		}
		return clampRating(*rec.Rating), true
	}
	rating, ok := implicitRatings[rec.InteractionType]
	return rating, ok
}

func clampRating(r float64) float64 {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}

// filterSparse iteratively drops users and items below the configured
// interaction minimums. Dropping an item can push a user below its
// minimum, so the filter loops until a fixed point.
func (a *Aggregator) filterSparse(pairs []RatedPair) []RatedPair {
	minUser, minItem := a.config.MinUserInteractions, a.config.MinItemInteractions
	if minUser <= 1 && minItem <= 1 {
		return pairs
	}

	for {
		userCounts := make(map[string]int)
		itemCounts := make(map[string]int)
		for _, p := range pairs {
			userCounts[p.UserID]++
			itemCounts[p.ItemID]++
		}

		kept := pairs[:0]
		for _, p := range pairs {
			if userCounts[p.UserID] >= minUser && itemCounts[p.ItemID] >= minItem {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(pairs) {
			return kept
		}
		pairs = kept
	}
}
