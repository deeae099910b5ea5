package stage

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/weftlab/weft/internal/pipeline"
)

// DefaultRankTol is the relative singular-value cutoff used to determine the
// effective rank of the similarity matrix when SVDConfig.Tol is zero.
const DefaultRankTol = 1e-10

// SVDConfig configures the reduction stage. K is the number of singular
// components to keep. Tol is the relative tolerance for counting the
// effective rank (sigma_i > Tol * sigma_0). Oversamples exists for parity
// with randomized solvers and is validated but unused; the exact
// factorization computes all components.
type SVDConfig struct {
	K           int
	Tol         float64
	Oversamples int
}

// SVDReduce factors the similarity matrix via truncated singular value
// decomposition and keeps the top-k components. The embedding convention is
// U_k * diag(sigma_k): row r is the item's coordinates scaled by the
// singular values, so dot products between rows approximate the original
// similarity entries.
type SVDReduce struct {
	cfg SVDConfig
}

// NewSVDReduce validates cfg and returns the stage. A non-positive K and
// negative Tol or Oversamples are rejected here rather than at first Apply.
func NewSVDReduce(cfg SVDConfig) (*SVDReduce, error) {
	if cfg.K <= 0 {
		return nil, &pipeline.DimensionError{K: cfg.K, Msg: fmt.Sprintf("k must be positive, got %d", cfg.K)}
	}
	if cfg.Tol < 0 {
		return nil, fmt.Errorf("tol must not be negative, got %v", cfg.Tol)
	}
	if cfg.Oversamples < 0 {
		return nil, fmt.Errorf("oversamples must not be negative, got %d", cfg.Oversamples)
	}
	if cfg.Tol == 0 {
		cfg.Tol = DefaultRankTol
	}
	return &SVDReduce{cfg: cfg}, nil
}

// Name implements pipeline.Transform.
func (*SVDReduce) Name() string { return "svd-reduce" }

// In implements pipeline.Transform.
func (*SVDReduce) In() pipeline.StateKind { return pipeline.KindItemSimilarity }

// Out implements pipeline.Transform.
func (*SVDReduce) Out() pipeline.StateKind { return pipeline.KindItemEmbedding }

// Apply decomposes the similarity matrix and keeps the first k left singular
// vectors scaled by their singular values. k larger than the matrix dimension
// is a DimensionError; k larger than the effective rank is a RankError; a
// factorization failure or non-finite output is a NumericError.
func (st *SVDReduce) Apply(_ context.Context, s pipeline.State) (pipeline.State, error) {
	in, ok := s.(pipeline.ItemSimilarity)
	if !ok {
		return nil, fmt.Errorf("svd-reduce: unexpected state %s", s.Kind())
	}
	n := in.Matrix.SymmetricDim()
	if n == 0 {
		return nil, &pipeline.EmptyInputError{Context: "similarity matrix has no items"}
	}
	if st.cfg.K > n {
		return nil, &pipeline.DimensionError{K: st.cfg.K, Dim: n}
	}

	var svd mat.SVD
	if !svd.Factorize(in.Matrix, mat.SVDThin) {
		return nil, &pipeline.NumericError{Op: "svd", Err: fmt.Errorf("factorization did not converge")}
	}
	sigma := svd.Values(nil)

	rank := effectiveRank(sigma, st.cfg.Tol)
	if st.cfg.K > rank {
		return nil, &pipeline.RankError{K: st.cfg.K, Rank: rank}
	}

	var u mat.Dense
	svd.UTo(&u)

	k := st.cfg.K
	emb := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			v := u.At(i, j) * sigma[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &pipeline.NumericError{Op: "svd",
					Err: fmt.Errorf("non-finite embedding value at (%d,%d)", i, j)}
			}
			emb.Set(i, j, v)
		}
	}

	values := make([]float64, k)
	copy(values, sigma[:k])

	return pipeline.ItemEmbedding{Matrix: emb, SingularValues: values, Items: in.Items}, nil
}

// effectiveRank counts singular values above tol relative to the largest.
func effectiveRank(sigma []float64, tol float64) int {
	if len(sigma) == 0 || sigma[0] <= 0 {
		return 0
	}
	cutoff := tol * sigma[0]
	rank := 0
	for _, v := range sigma {
		if v > cutoff {
			rank++
		}
	}
	return rank
}
