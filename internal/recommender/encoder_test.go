package recommender

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitEncoder_AssignsFirstOccurrenceOrder(t *testing.T) {
	enc := FitEncoder([]string{"paris-tour", "rome-walk", "paris-tour", "tokyo-food", "rome-walk"})

	assert.Equal(t, 3, enc.Len())
	assert.Equal(t, []string{"paris-tour", "rome-walk", "tokyo-food"}, enc.IDs())

	idx, err := enc.Encode("rome-walk")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	id, err := enc.Decode(2)
	require.NoError(t, err)
	assert.Equal(t, "tokyo-food", id)
}

func TestFitEncoder_Deterministic(t *testing.T) {
	ids := []string{"a", "b", "c", "b", "a"}
	first := FitEncoder(ids)
	second := FitEncoder(ids)

	assert.Equal(t, first.IDs(), second.IDs())
	for _, id := range first.IDs() {
		i1, err1 := first.Encode(id)
		i2, err2 := second.Encode(id)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, i1, i2)
	}
}

func TestEncoder_UnknownIdentifier(t *testing.T) {
	enc := FitEncoder([]string{"a", "b"})

	_, err := enc.Encode("c")
	assert.True(t, errors.Is(err, ErrUnknownIdentifier))
	assert.False(t, enc.Contains("c"))
	assert.True(t, enc.Contains("a"))
}

func TestEncoder_DecodeOutOfRange(t *testing.T) {
	enc := FitEncoder([]string{"a", "b"})

	tests := []struct {
		name  string
		index int
	}{
		{"negative", -1},
		{"past end", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decode(tt.index)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange))
		})
	}
}

func TestFitEncoder_Empty(t *testing.T) {
	enc := FitEncoder(nil)
	assert.Equal(t, 0, enc.Len())
	_, err := enc.Encode("anything")
	assert.True(t, errors.Is(err, ErrUnknownIdentifier))
}
