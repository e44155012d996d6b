// Package storage holds the external collaborators of the recommender:
// the append-only interaction history and the read-only experience
// catalog. The recommender core only sees these interfaces; unreachable
// backends surface as recommender.ErrCollaboratorUnavailable and are
// never retried here.
package storage

import (
	"context"

	"github.com/explora/recsys/pkg/models"
)

// InteractionStore is the append-only interaction history.
type InteractionStore interface {
	// Append records one interaction. Records are immutable once written.
	Append(ctx context.Context, rec models.Interaction) error
	// ScanAll returns the full interaction history for training.
	ScanAll(ctx context.Context) ([]models.Interaction, error)
	// UserItemIDs returns the ids of items the user has interacted with,
	// used to exclude already-seen items from serving.
	UserItemIDs(ctx context.Context, userID string) ([]string, error)
}

// CatalogStore is the read-only experience catalog.
type CatalogStore interface {
	ItemByID(ctx context.Context, id string) (*models.Experience, error)
	// ItemsByIDs batch-fetches display metadata; ids with no catalog entry
	// are simply absent from the result.
	ItemsByIDs(ctx context.Context, ids []string) (map[string]models.Experience, error)
	// ScanAll returns the full catalog, for the popularity ranker.
	ScanAll(ctx context.Context) ([]models.Experience, error)
}
