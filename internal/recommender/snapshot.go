package recommender

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/explora/recsys/pkg/models"
)

// Snapshot is one complete, immutable set of trained model artifacts: the
// encoders and the factor matrices they index into, plus training
// metadata. Row i of the user factors belongs to the user the encoder
// decodes at i; the two always travel together and are replaced together.
type Snapshot struct {
	users       *IdentityEncoder
	items       *IdentityEncoder
	userFactors *mat.Dense
	itemFactors *mat.Dense
	metrics     models.TrainingMetrics
}

// ScoredIndex is an item scored against one user or seed item.
type ScoredIndex struct {
	ItemID string
	Score  float64
}

// NewSnapshot validates the shape invariants and bundles the artifacts.
// A factor row count that disagrees with its encoder means the caller is
// mixing artifacts from different training runs, which must never be
// served.
func NewSnapshot(users, items *IdentityEncoder, userFactors, itemFactors *mat.Dense, metrics models.TrainingMetrics) (*Snapshot, error) {
	ur, uf := userFactors.Dims()
	ir, itf := itemFactors.Dims()
	if ur != users.Len() {
		return nil, fmt.Errorf("user factor rows %d != encoder size %d: %w", ur, users.Len(), ErrInvalidArgument)
	}
	if ir != items.Len() {
		return nil, fmt.Errorf("item factor rows %d != encoder size %d: %w", ir, items.Len(), ErrInvalidArgument)
	}
	if uf != itf {
		return nil, fmt.Errorf("factor dimensionality mismatch %d != %d: %w", uf, itf, ErrInvalidArgument)
	}
	return &Snapshot{
		users:       users,
		items:       items,
		userFactors: userFactors,
		itemFactors: itemFactors,
		metrics:     metrics,
	}, nil
}

func (s *Snapshot) Metrics() models.TrainingMetrics { return s.metrics }
func (s *Snapshot) NumUsers() int                   { return s.users.Len() }
func (s *Snapshot) NumItems() int                   { return s.items.Len() }

// KnowsUser reports whether userID was present at training time.
func (s *Snapshot) KnowsUser(userID string) bool { return s.users.Contains(userID) }

// TopKForUser scores every item against the user's factor row and returns
// the k best, skipping excluded item ids. Ties break by ascending item
// index so a fixed snapshot always ranks identically.
func (s *Snapshot) TopKForUser(userID string, k int, exclude map[string]bool) ([]ScoredIndex, error) {
	if k <= 0 {
		return nil, ErrInvalidArgument
	}
	u, err := s.users.Encode(userID)
	if err != nil {
		return nil, err
	}

	userRow := s.userFactors.RawRowView(u)
	scored := make([]ScoredIndex, 0, s.items.Len())
	for i := 0; i < s.items.Len(); i++ {
		itemID, _ := s.items.Decode(i)
		if exclude[itemID] {
			continue
		}
		scored = append(scored, ScoredIndex{
			ItemID: itemID,
			Score:  floats.Dot(userRow, s.itemFactors.RawRowView(i)),
		})
	}

	return topK(scored, k, s.items), nil
}

// SimilarItems ranks items by cosine similarity of their factor rows to
// the seed item's row. The seed itself is not part of the result.
func (s *Snapshot) SimilarItems(itemID string, k int) ([]ScoredIndex, error) {
	if k <= 0 {
		return nil, ErrInvalidArgument
	}
	seed, err := s.items.Encode(itemID)
	if err != nil {
		return nil, err
	}

	seedRow := s.itemFactors.RawRowView(seed)
	seedNorm := floats.Norm(seedRow, 2)

	scored := make([]ScoredIndex, 0, s.items.Len()-1)
	for i := 0; i < s.items.Len(); i++ {
		if i == seed {
			continue
		}
		row := s.itemFactors.RawRowView(i)
		denom := seedNorm * floats.Norm(row, 2)
		score := 0.0
		if denom > 0 {
			score = floats.Dot(seedRow, row) / denom
		}
		id, _ := s.items.Decode(i)
		scored = append(scored, ScoredIndex{ItemID: id, Score: score})
	}

	return topK(scored, k, s.items), nil
}

func topK(scored []ScoredIndex, k int, items *IdentityEncoder) []ScoredIndex {
	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		ia, _ := items.Encode(scored[a].ItemID)
		ib, _ := items.Encode(scored[b].ItemID)
		return ia < ib
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// ModelRef is the single mutable cell of the serving path: a versioned
// reference to the active snapshot, swapped atomically by the retraining
// coordinator. Readers load once per request and work against that
// snapshot for the whole request, so an in-flight request never observes
// a mix of two models.
type ModelRef struct {
	ptr atomic.Pointer[Snapshot]
}

// Active returns the currently served snapshot, or nil when no training
// run has succeeded yet.
func (r *ModelRef) Active() *Snapshot {
	return r.ptr.Load()
}

// Publish atomically replaces the served snapshot. The cache flush that
// follows publication is sequenced by the coordinator: swap first, flush
// second, so no request can pair the new model with pre-swap cache state.
func (r *ModelRef) Publish(s *Snapshot) {
	r.ptr.Store(s)
}

// snapshotFile is the on-disk form. Gob round-trips the factor data
// exactly; shape invariants are re-validated on load before the snapshot
// can be activated.
type snapshotFile struct {
	UserIDs     []string
	ItemIDs     []string
	Factors     int
	UserFactors []float64
	ItemFactors []float64
	Metrics     models.TrainingMetrics
}

// Save writes the snapshot to path atomically (temp file + rename).
func (s *Snapshot) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	_, f := s.userFactors.Dims()
	file := snapshotFile{
		UserIDs:     s.users.IDs(),
		ItemIDs:     s.items.IDs(),
		Factors:     f,
		UserFactors: rawData(s.userFactors),
		ItemFactors: rawData(s.itemFactors),
		Metrics:     s.metrics,
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "snapshot-*.gob")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&file); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadSnapshot reads a previously saved snapshot and re-validates its
// shape invariants.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file snapshotFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if file.Factors <= 0 ||
		len(file.UserIDs) == 0 || len(file.ItemIDs) == 0 ||
		len(file.UserFactors) != len(file.UserIDs)*file.Factors ||
		len(file.ItemFactors) != len(file.ItemIDs)*file.Factors {
		return nil, fmt.Errorf("snapshot shape invariants violated: %w", ErrInvalidArgument)
	}
	for _, v := range file.UserFactors {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("snapshot contains non-finite user factors: %w", ErrInvalidArgument)
		}
	}

	return NewSnapshot(
		FitEncoder(file.UserIDs),
		FitEncoder(file.ItemIDs),
		mat.NewDense(len(file.UserIDs), file.Factors, file.UserFactors),
		mat.NewDense(len(file.ItemIDs), file.Factors, file.ItemFactors),
		file.Metrics,
	)
}

func rawData(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	out := make([]float64, len(raw.Data))
	copy(out, raw.Data)
	return out
}
