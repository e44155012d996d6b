package recommender

import (
	"sort"

	"github.com/explora/recsys/pkg/models"
)

// RankByPopularity is the cold-start fallback: a pure function of the
// current catalog snapshot, independent of any trained model. Items rank
// by average rating, then review count, then id ascending, so items that
// nobody has interacted with (rating 0, zero reviews) always sink to the
// bottom and the ordering is fully deterministic.
func RankByPopularity(items []models.Experience, k int) []ScoredIndex {
	if k <= 0 || len(items) == 0 {
		return nil
	}

	ranked := make([]models.Experience, 0, len(items))
	for _, item := range items {
		if item.Active {
			ranked = append(ranked, item)
		}
	}

	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Rating != ranked[b].Rating {
			return ranked[a].Rating > ranked[b].Rating
		}
		if ranked[a].ReviewCount != ranked[b].ReviewCount {
			return ranked[a].ReviewCount > ranked[b].ReviewCount
		}
		return ranked[a].ID < ranked[b].ID
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]ScoredIndex, len(ranked))
	for i, item := range ranked {
		out[i] = ScoredIndex{ItemID: item.ID, Score: item.Rating}
	}
	return out
}
