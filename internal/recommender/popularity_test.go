package recommender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explora/recsys/pkg/models"
)

func catalogItem(id string, rating float64, reviews int, active bool) models.Experience {
	return models.Experience{
		ID:          id,
		Name:        "Experience " + id,
		Rating:      rating,
		ReviewCount: reviews,
		Active:      active,
	}
}

func TestRankByPopularity_Ordering(t *testing.T) {
	items := []models.Experience{
		catalogItem("low", 3.0, 900, true),
		catalogItem("top", 4.9, 120, true),
		catalogItem("tie-b", 4.5, 200, true),
		catalogItem("tie-a", 4.5, 200, true),
		catalogItem("more-reviews", 4.5, 500, true),
	}

	ranked := RankByPopularity(items, 5)
	require.Len(t, ranked, 5)

	got := make([]string, len(ranked))
	for i, sc := range ranked {
		got[i] = sc.ItemID
	}
	// Rating desc, then review count desc, then id asc.
	assert.Equal(t, []string{"top", "more-reviews", "tie-a", "tie-b", "low"}, got)
	assert.Equal(t, 4.9, ranked[0].Score)
}

func TestRankByPopularity_FiltersInactiveAndTruncates(t *testing.T) {
	items := []models.Experience{
		catalogItem("a", 5.0, 10, true),
		catalogItem("retired", 5.0, 999, false),
		catalogItem("b", 4.0, 10, true),
		catalogItem("c", 3.0, 10, true),
	}

	ranked := RankByPopularity(items, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].ItemID)
	assert.Equal(t, "b", ranked[1].ItemID)
}

func TestRankByPopularity_UnratedItemsSink(t *testing.T) {
	items := []models.Experience{
		catalogItem("fresh", 0, 0, true),
		catalogItem("proven", 4.2, 88, true),
	}

	ranked := RankByPopularity(items, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "proven", ranked[0].ItemID)
	assert.Equal(t, "fresh", ranked[1].ItemID)
}

func TestRankByPopularity_DegenerateInputs(t *testing.T) {
	assert.Nil(t, RankByPopularity(nil, 5))
	assert.Nil(t, RankByPopularity([]models.Experience{catalogItem("a", 4, 1, true)}, 0))
}
