package recommender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"

	"github.com/explora/recsys/pkg/models"
)

func TestEvaluateHitRate(t *testing.T) {
	train, err := BuildMatrix([]RatedPair{
		{UserID: "u1", ItemID: "i1", Rating: 5},
		{UserID: "u2", ItemID: "i2", Rating: 5},
	})
	require.NoError(t, err)

	users := train.Users
	items := FitEncoder([]string{"i1", "i2", "i3", "i4"})

	// u1's row points at i3, u2's row points at i4, so with train items
	// excluded each user's top-1 is exactly one holdout candidate.
	userFactors := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
	itemFactors := mat.NewDense(4, 2, []float64{
		0.9, 0.0,
		0.0, 0.9,
		1.0, 0.0,
		0.0, 1.0,
	})

	s, err := NewSnapshot(users, items, userFactors, itemFactors, models.TrainingMetrics{})
	require.NoError(t, err)

	holdout := []RatedPair{
		{UserID: "u1", ItemID: "i3", Rating: 5}, // hit at k=1
		{UserID: "u2", ItemID: "i3", Rating: 5}, // miss: u2's top-1 is i4
	}

	assert.Equal(t, 0.5, EvaluateHitRate(s, train, holdout, 1))
	assert.Equal(t, 1.0, EvaluateHitRate(s, train, holdout, 3))
}

func TestEvaluateHitRate_SkipsUnknownPairsAndDegenerateInput(t *testing.T) {
	train, err := BuildMatrix([]RatedPair{{UserID: "u1", ItemID: "i1", Rating: 5}})
	require.NoError(t, err)

	s, err := NewSnapshot(train.Users, train.Items,
		mat.NewDense(1, 1, []float64{1}),
		mat.NewDense(1, 1, []float64{1}),
		models.TrainingMetrics{})
	require.NoError(t, err)

	// Holdout only contains pairs outside the snapshot vocabulary.
	holdout := []RatedPair{{UserID: "stranger", ItemID: "i1"}, {UserID: "u1", ItemID: "ghost"}}
	assert.Equal(t, 0.0, EvaluateHitRate(s, train, holdout, 5))

	assert.Equal(t, 0.0, EvaluateHitRate(s, train, nil, 5))
	assert.Equal(t, 0.0, EvaluateHitRate(s, train, holdout, 0))
}
