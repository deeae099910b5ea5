package stage

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/weftlab/weft/internal/pipeline"
)

// Normalization selects how similarity entries are scaled.
type Normalization string

const (
	// NormalizationNone keeps raw co-occurrence dot products.
	NormalizationNone Normalization = "none"
	// NormalizationCosine divides each entry by the product of the two item
	// columns' L2 norms.
	NormalizationCosine Normalization = "cosine"
)

// SimilarityConfig configures the similarity stage. Unknown normalization
// values are rejected at construction.
type SimilarityConfig struct {
	Normalization Normalization
	// ZeroDiagonal clears self-similarity entries after normalization. The
	// default keeps them: the diagonal is an item's total weighted occurrence.
	ZeroDiagonal bool
}

// Similarity computes the item x item matrix S = M^T M, where entry (i, j) is
// the sum over links of the two items' weights. S is symmetric by
// construction for both supported normalizations.
type Similarity struct {
	cfg SimilarityConfig
}

// NewSimilarity validates cfg and returns the stage. An empty normalization
// defaults to none.
func NewSimilarity(cfg SimilarityConfig) (*Similarity, error) {
	switch cfg.Normalization {
	case "":
		cfg.Normalization = NormalizationNone
	case NormalizationNone, NormalizationCosine:
	default:
		return nil, fmt.Errorf("unknown normalization %q (want none or cosine)", cfg.Normalization)
	}
	return &Similarity{cfg: cfg}, nil
}

// Name implements pipeline.Transform.
func (*Similarity) Name() string { return "similarity" }

// In implements pipeline.Transform.
func (*Similarity) In() pipeline.StateKind { return pipeline.KindLinkItemMatrix }

// Out implements pipeline.Transform.
func (*Similarity) Out() pipeline.StateKind { return pipeline.KindItemSimilarity }

// Apply accumulates co-occurrence products per link row. Each link's item set
// is small relative to the item universe, so iterating pairs within a row is
// far cheaper than a dense transpose-multiply.
func (st *Similarity) Apply(_ context.Context, s pipeline.State) (pipeline.State, error) {
	in, ok := s.(pipeline.LinkItemMatrix)
	if !ok {
		return nil, fmt.Errorf("similarity: unexpected state %s", s.Kind())
	}
	nLinks, nItems := in.Matrix.Dims()
	if nItems == 0 {
		return nil, &pipeline.EmptyInputError{Context: "matrix has no item columns"}
	}

	sim := mat.NewSymDense(nItems, nil)
	for r := 0; r < nLinks; r++ {
		row := in.Matrix.Row(r)
		for x := 0; x < len(row); x++ {
			for y := x; y < len(row); y++ {
				i, j := row[x].Col, row[y].Col
				sim.SetSym(i, j, sim.At(i, j)+row[x].Val*row[y].Val)
			}
		}
	}

	if st.cfg.Normalization == NormalizationCosine {
		// Column norms come from the raw diagonal: S_ii = sum of squared weights.
		norms := make([]float64, nItems)
		for i := 0; i < nItems; i++ {
			norms[i] = math.Sqrt(sim.At(i, i))
		}
		for i := 0; i < nItems; i++ {
			for j := i; j < nItems; j++ {
				d := norms[i] * norms[j]
				if d == 0 {
					sim.SetSym(i, j, 0)
					continue
				}
				sim.SetSym(i, j, sim.At(i, j)/d)
			}
		}
	}
	if st.cfg.ZeroDiagonal {
		for i := 0; i < nItems; i++ {
			sim.SetSym(i, i, 0)
		}
	}

	for i := 0; i < nItems; i++ {
		for j := i; j < nItems; j++ {
			if v := sim.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &pipeline.NumericError{Op: "similarity",
					Err: fmt.Errorf("non-finite similarity at (%d,%d)", i, j)}
			}
		}
	}

	return pipeline.ItemSimilarity{Matrix: sim, Items: in.Items}, nil
}
