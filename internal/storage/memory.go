package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/explora/recsys/internal/recommender"
	"github.com/explora/recsys/pkg/models"
)

// MemoryInteractionStore is an in-process InteractionStore for tests and
// local development. Append-only, like the real thing.
type MemoryInteractionStore struct {
	mu      sync.RWMutex
	records []models.Interaction
}

func NewMemoryInteractionStore() *MemoryInteractionStore {
	return &MemoryInteractionStore{}
}

func (s *MemoryInteractionStore) Append(ctx context.Context, rec models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryInteractionStore) ScanAll(ctx context.Context) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Interaction, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryInteractionStore) UserItemIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, rec := range s.records {
		if rec.UserID == userID {
			seen[rec.ItemID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// MemoryCatalogStore is an in-process CatalogStore for tests.
type MemoryCatalogStore struct {
	mu    sync.RWMutex
	items map[string]models.Experience
}

func NewMemoryCatalogStore(items ...models.Experience) *MemoryCatalogStore {
	s := &MemoryCatalogStore{items: make(map[string]models.Experience, len(items))}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *MemoryCatalogStore) Put(item models.Experience) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *MemoryCatalogStore) ItemByID(ctx context.Context, id string) (*models.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: experience %q", recommender.ErrUnknownIdentifier, id)
	}
	return &item, nil
}

func (s *MemoryCatalogStore) ItemsByIDs(ctx context.Context, ids []string) (map[string]models.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Experience, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (s *MemoryCatalogStore) ScanAll(ctx context.Context) ([]models.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Experience, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
