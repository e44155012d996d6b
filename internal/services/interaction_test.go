package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/internal/storage"
	"github.com/explora/recsys/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestInteractionService_Record(t *testing.T) {
	tests := []struct {
		name    string
		request models.InteractionRequest
		wantErr bool
	}{
		{
			name: "valid view",
			request: models.InteractionRequest{
				UserID: "u1", ItemID: "i1", InteractionType: "view",
			},
		},
		{
			name: "valid rating",
			request: models.InteractionRequest{
				UserID: "u1", ItemID: "i1", InteractionType: "rating", Rating: floatPtr(4.5),
			},
		},
		{
			name: "unknown kind",
			request: models.InteractionRequest{
				UserID: "u1", ItemID: "i1", InteractionType: "teleport",
			},
			wantErr: true,
		},
		{
			name: "rating without value",
			request: models.InteractionRequest{
				UserID: "u1", ItemID: "i1", InteractionType: "rating",
			},
			wantErr: true,
		},
		{
			name: "rating out of range",
			request: models.InteractionRequest{
				UserID: "u1", ItemID: "i1", InteractionType: "rating", Rating: floatPtr(7),
			},
			wantErr: true,
		},
		{
			name: "rating value on a view",
			request: models.InteractionRequest{
				UserID: "u1", ItemID: "i1", InteractionType: "view", Rating: floatPtr(3),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryInteractionStore()
			svc := NewInteractionService(store, testLogger())

			rec, err := svc.Record(context.Background(), tt.request)
			if tt.wantErr {
				assert.True(t, errors.Is(err, recommender.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.NotEqual(t, "", rec.ID.String())
			assert.False(t, rec.Timestamp.IsZero())

			history, err := store.ScanAll(context.Background())
			require.NoError(t, err)
			assert.Len(t, history, 1)
		})
	}
}

func TestInteractionService_NormalizesIdentifiers(t *testing.T) {
	store := storage.NewMemoryInteractionStore()
	svc := NewInteractionService(store, testLogger())

	// "café" in decomposed form (e + combining acute accent).
	decomposed := "café-tour"
	composed := "café-tour"

	rec, err := svc.Record(context.Background(), models.InteractionRequest{
		UserID:          decomposed,
		ItemID:          decomposed,
		InteractionType: "view",
	})
	require.NoError(t, err)

	assert.Equal(t, composed, rec.UserID)
	assert.Equal(t, composed, rec.ItemID)
}
