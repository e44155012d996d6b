package recommender

import "fmt"

// IdentityEncoder is a bijection between opaque string identifiers and
// dense zero-based integer indices. One encoder covers one identifier
// space (users or items); the two spaces never share an encoder.
//
// An encoder is built once per training run and is immutable afterwards.
// The next run builds a fresh encoder rather than mutating this one, so a
// snapshot's factor rows always line up with the encoder they were trained
// against.
type IdentityEncoder struct {
	index map[string]int
	ids   []string
}

// FitEncoder assigns index i to the i-th distinct id in input order.
// Input order is preserved, not hashed, so a rebuilt encoder over the same
// ordered ids is identical.
func FitEncoder(ids []string) *IdentityEncoder {
	enc := &IdentityEncoder{
		index: make(map[string]int, len(ids)),
		ids:   make([]string, 0, len(ids)),
	}
	for _, id := range ids {
		if _, ok := enc.index[id]; ok {
			continue
		}
		enc.index[id] = len(enc.ids)
		enc.ids = append(enc.ids, id)
	}
	return enc
}

// Encode returns the index for id, or ErrUnknownIdentifier if the id was
// not present when the encoder was fit. Unknown ids are never assigned a
// default index.
func (e *IdentityEncoder) Encode(id string) (int, error) {
	idx, ok := e.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownIdentifier, id)
	}
	return idx, nil
}

// Decode returns the id for index.
func (e *IdentityEncoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(e.ids) {
		return "", fmt.Errorf("%w: %d (n=%d)", ErrIndexOutOfRange, index, len(e.ids))
	}
	return e.ids[index], nil
}

// Contains reports whether id has an index without allocating an error.
func (e *IdentityEncoder) Contains(id string) bool {
	_, ok := e.index[id]
	return ok
}

// Len returns the number of encoded identifiers.
func (e *IdentityEncoder) Len() int {
	return len(e.ids)
}

// IDs returns the encoded identifiers in index order. The returned slice
// is shared; callers must not modify it.
func (e *IdentityEncoder) IDs() []string {
	return e.ids
}
