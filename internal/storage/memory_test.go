package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

func TestMemoryInteractionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryInteractionStore()

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, models.Interaction{UserID: "u1", ItemID: "i2", InteractionType: "view", Timestamp: ts}))
	require.NoError(t, store.Append(ctx, models.Interaction{UserID: "u1", ItemID: "i1", InteractionType: "view", Timestamp: ts}))
	require.NoError(t, store.Append(ctx, models.Interaction{UserID: "u2", ItemID: "i1", InteractionType: "view", Timestamp: ts}))

	all, err := store.ScanAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ids, err := store.UserItemIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "i2"}, ids)

	none, err := store.UserItemIDs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryCatalogStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCatalogStore(
		models.Experience{ID: "b", Name: "B", Active: true},
		models.Experience{ID: "a", Name: "A", Active: true},
	)

	item, err := store.ItemByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", item.Name)

	_, err = store.ItemByID(ctx, "ghost")
	assert.True(t, errors.Is(err, recommender.ErrUnknownIdentifier))

	batch, err := store.ItemsByIDs(ctx, []string{"a", "ghost"})
	require.NoError(t, err)
	assert.Len(t, batch, 1)

	all, err := store.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}
