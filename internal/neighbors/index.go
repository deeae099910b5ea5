// Package neighbors provides an in-memory nearest-neighbor index over the
// built item embeddings.
package neighbors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/weftlab/weft/internal/models"
	"github.com/weftlab/weft/pkg/utils"
)

// Index is a brute-force cosine top-k index. Vectors are L2-normalized on
// insert so search reduces to a dot product. Suitable for the item counts a
// single pipeline run produces; swap-in of a rebuilt set is atomic.
type Index struct {
	mu   sync.RWMutex
	dim  int
	ids  []string
	pos  map[string]int
	vecs [][]float64
}

// New returns an empty index for vectors of the given dimension.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &Index{dim: dim, pos: make(map[string]int)}, nil
}

// FromEmbeddings builds an index from a stored embedding set. The dimension
// is taken from the first vector; mismatched vectors are an error.
func FromEmbeddings(embeddings []*models.Embedding) (*Index, error) {
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings to index")
	}
	idx, err := New(len(embeddings[0].Vector))
	if err != nil {
		return nil, err
	}
	for _, e := range embeddings {
		if err := idx.Add(e.ItemID, e.Vector); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Add inserts one item's vector. The vector is copied and normalized; a
// repeated item ID replaces the previous vector.
func (x *Index) Add(id string, vector []float64) error {
	if len(vector) != x.dim {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vector), x.dim)
	}
	vec := make([]float64, x.dim)
	copy(vec, vector)
	utils.NormalizeL2(vec)

	x.mu.Lock()
	defer x.mu.Unlock()
	if p, ok := x.pos[id]; ok {
		x.vecs[p] = vec
		return nil
	}
	x.pos[id] = len(x.ids)
	x.ids = append(x.ids, id)
	x.vecs = append(x.vecs, vec)
	return nil
}

// Search returns the top-k items by cosine similarity to query.
func (x *Index) Search(query []float64, k int) ([]*models.Neighbor, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dim)
	}
	q := make([]float64, x.dim)
	copy(q, query)
	utils.NormalizeL2(q)

	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.topK(q, k, -1), nil
}

// SearchByID returns the top-k items nearest to the named item, excluding
// the item itself.
func (x *Index) SearchByID(id string, k int) ([]*models.Neighbor, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.pos[id]
	if !ok {
		return nil, fmt.Errorf("item not found: %s", id)
	}
	return x.topK(x.vecs[p], k, p), nil
}

// topK scans all vectors; exclude is a position to skip (-1 for none).
// Callers hold at least a read lock.
func (x *Index) topK(query []float64, k, exclude int) []*models.Neighbor {
	if k <= 0 || len(x.ids) == 0 {
		return nil
	}
	scored := make([]*models.Neighbor, 0, len(x.ids))
	for i, vec := range x.vecs {
		if i == exclude {
			continue
		}
		scored = append(scored, &models.Neighbor{ItemID: x.ids[i], Score: utils.Dot(query, vec)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > len(scored) {
		k = len(scored)
	}
	scored = scored[:k]
	for i, n := range scored {
		n.Rank = i + 1
	}
	return scored
}

// Vector returns the stored (normalized) vector for an item.
func (x *Index) Vector(id string) ([]float64, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.pos[id]
	if !ok {
		return nil, false
	}
	out := make([]float64, x.dim)
	copy(out, x.vecs[p])
	return out, true
}

// Dim returns the vector dimension.
func (x *Index) Dim() int { return x.dim }

// Size returns the number of indexed items.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

// Items returns the indexed item IDs in insertion order.
func (x *Index) Items() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}
