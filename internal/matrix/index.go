// Package matrix provides the sparse link-item matrix and identifier index maps.
package matrix

// Index is a bijection between original identifiers and contiguous zero-based
// positions, assigned in first-seen order. It is total and injective over the
// identifiers added to it: no identifier maps to more than one position and
// no position to more than one identifier.
type Index struct {
	ids []string
	pos map[string]int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{pos: make(map[string]int)}
}

// Add returns the position of id, assigning the next free position when the
// identifier has not been seen before.
func (x *Index) Add(id string) int {
	if p, ok := x.pos[id]; ok {
		return p
	}
	p := len(x.ids)
	x.ids = append(x.ids, id)
	x.pos[id] = p
	return p
}

// Lookup returns the position of id and whether it is present.
func (x *Index) Lookup(id string) (int, bool) {
	p, ok := x.pos[id]
	return p, ok
}

// ID returns the identifier at position i (the inverse mapping).
func (x *Index) ID(i int) string { return x.ids[i] }

// Len returns the number of identifiers in the index.
func (x *Index) Len() int { return len(x.ids) }

// IDs returns a copy of the identifiers in position order.
func (x *Index) IDs() []string {
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}
