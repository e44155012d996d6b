package recommender

import "sort"

// RatingMatrix is the sparse user×item rating matrix in CSR form, together
// with the encoders that define its row and column spaces. Only observed
// entries are stored; a missing entry means "no interaction", which is
// distinct from any observed rating (zero is never a valid rating).
//
// Confidence values are derived on the fly as 1 + alpha*rating during the
// factorization; they are never materialized as a second matrix.
type RatingMatrix struct {
	Users *IdentityEncoder
	Items *IdentityEncoder

	rowPtr []int
	colIdx []int
	vals   []float64
}

// BuildMatrix fits fresh encoders over the aggregated triples and packs
// the ratings into CSR. The triples must be unique per (user, item) pair;
// they may arrive in any order and are grouped by user here.
func BuildMatrix(pairs []RatedPair) (*RatingMatrix, error) {
	if len(pairs) == 0 {
		return nil, ErrInsufficientTrainingData
	}

	ordered := make([]RatedPair, len(pairs))
	copy(ordered, pairs)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].UserID != ordered[j].UserID {
			return ordered[i].UserID < ordered[j].UserID
		}
		return ordered[i].ItemID < ordered[j].ItemID
	})
	pairs = ordered

	userIDs := make([]string, 0, len(pairs))
	itemIDs := make([]string, 0, len(pairs))
	for _, p := range pairs {
		userIDs = append(userIDs, p.UserID)
		itemIDs = append(itemIDs, p.ItemID)
	}
	users := FitEncoder(userIDs)
	items := FitEncoder(itemIDs)

	m := &RatingMatrix{
		Users:  users,
		Items:  items,
		rowPtr: make([]int, users.Len()+1),
		colIdx: make([]int, 0, len(pairs)),
		vals:   make([]float64, 0, len(pairs)),
	}

	// After sorting each row is contiguous.
	current := 0
	for _, p := range pairs {
		u, _ := users.Encode(p.UserID)
		i, _ := items.Encode(p.ItemID)
		for current < u {
			current++
			m.rowPtr[current+1] = m.rowPtr[current]
		}
		m.colIdx = append(m.colIdx, i)
		m.vals = append(m.vals, p.Rating)
		m.rowPtr[current+1]++
	}
	for current < users.Len()-1 {
		current++
		m.rowPtr[current+1] = m.rowPtr[current]
	}

	return m, nil
}

func (m *RatingMatrix) NumUsers() int { return m.Users.Len() }
func (m *RatingMatrix) NumItems() int { return m.Items.Len() }
func (m *RatingMatrix) NNZ() int      { return len(m.vals) }

// Row returns the observed item indices and ratings for user row u. The
// returned slices alias internal storage.
func (m *RatingMatrix) Row(u int) (cols []int, ratings []float64) {
	start, end := m.rowPtr[u], m.rowPtr[u+1]
	return m.colIdx[start:end], m.vals[start:end]
}

// Observed reports whether user row u has an entry for item column i.
func (m *RatingMatrix) Observed(u, i int) bool {
	cols, _ := m.Row(u)
	for _, c := range cols {
		if c == i {
			return true
		}
	}
	return false
}

// Transpose returns the item-major CSR of the same matrix, used for the
// item phase of the alternating solve.
func (m *RatingMatrix) Transpose() *RatingMatrix {
	t := &RatingMatrix{
		Users:  m.Items,
		Items:  m.Users,
		rowPtr: make([]int, m.NumItems()+1),
		colIdx: make([]int, len(m.colIdx)),
		vals:   make([]float64, len(m.vals)),
	}

	for _, c := range m.colIdx {
		t.rowPtr[c+1]++
	}
	for i := 0; i < m.NumItems(); i++ {
		t.rowPtr[i+1] += t.rowPtr[i]
	}

	next := make([]int, m.NumItems())
	copy(next, t.rowPtr[:m.NumItems()])
	for u := 0; u < m.NumUsers(); u++ {
		cols, vals := m.Row(u)
		for k, c := range cols {
			pos := next[c]
			t.colIdx[pos] = u
			t.vals[pos] = vals[k]
			next[c]++
		}
	}
	return t
}
