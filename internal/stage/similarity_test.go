package stage

import (
	"context"
	"math"
	"testing"

	"github.com/weftlab/weft/internal/pipeline"
)

// buildMatrix runs the sparse builder over the given pairs and returns its
// output state for feeding into later stages.
func buildMatrix(t *testing.T, links, items []string) pipeline.LinkItemMatrix {
	t.Helper()
	b, err := NewSparseBuilder(testCols)
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Apply(context.Background(), rowsOf(t, links, items))
	if err != nil {
		t.Fatal(err)
	}
	return out.(pipeline.LinkItemMatrix)
}

func TestSimilarity_CoOccurrenceCounts(t *testing.T) {
	// The worked scenario: after dedup, (u1,i1), (u1,i2), (u2,i1).
	in := buildMatrix(t, []string{"u1", "u1", "u2"}, []string{"i1", "i2", "i1"})
	st, err := NewSimilarity(SimilarityConfig{Normalization: NormalizationNone})
	if err != nil {
		t.Fatal(err)
	}
	out, err := st.Apply(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	sim := out.(pipeline.ItemSimilarity).Matrix
	if n := sim.SymmetricDim(); n != 2 {
		t.Fatalf("similarity dim = %d, want 2", n)
	}
	cases := []struct {
		i, j int
		want float64
	}{
		{0, 0, 2}, // i1 with i1: u1 and u2
		{0, 1, 1}, // i1 with i2: u1 only
		{1, 1, 1}, // i2 with i2: u1 only
	}
	for _, c := range cases {
		if got := sim.At(c.i, c.j); got != c.want {
			t.Errorf("sim(%d,%d) = %v, want %v", c.i, c.j, got, c.want)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	in := buildMatrix(t,
		[]string{"u1", "u1", "u2", "u2", "u3"},
		[]string{"i1", "i2", "i2", "i3", "i1"},
	)
	for _, norm := range []Normalization{NormalizationNone, NormalizationCosine} {
		st, err := NewSimilarity(SimilarityConfig{Normalization: norm})
		if err != nil {
			t.Fatal(err)
		}
		out, err := st.Apply(context.Background(), in)
		if err != nil {
			t.Fatal(err)
		}
		sim := out.(pipeline.ItemSimilarity).Matrix
		n := sim.SymmetricDim()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if sim.At(i, j) != sim.At(j, i) {
					t.Errorf("%s: sim(%d,%d) != sim(%d,%d)", norm, i, j, j, i)
				}
			}
		}
	}
}

func TestSimilarity_CosineUnitDiagonal(t *testing.T) {
	in := buildMatrix(t,
		[]string{"u1", "u1", "u2"},
		[]string{"i1", "i2", "i1"},
	)
	st, err := NewSimilarity(SimilarityConfig{Normalization: NormalizationCosine})
	if err != nil {
		t.Fatal(err)
	}
	out, err := st.Apply(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	sim := out.(pipeline.ItemSimilarity).Matrix
	for i := 0; i < sim.SymmetricDim(); i++ {
		if math.Abs(sim.At(i, i)-1) > 1e-12 {
			t.Errorf("cosine diagonal (%d,%d) = %v, want 1", i, i, sim.At(i, i))
		}
	}
	// i1 appears for u1,u2; i2 for u1 only: cos = 1 / (sqrt(2)*1).
	want := 1 / math.Sqrt2
	if got := sim.At(0, 1); math.Abs(got-want) > 1e-12 {
		t.Errorf("cosine sim(i1,i2) = %v, want %v", got, want)
	}
}

func TestSimilarity_ZeroDiagonal(t *testing.T) {
	in := buildMatrix(t, []string{"u1", "u1"}, []string{"i1", "i2"})
	st, err := NewSimilarity(SimilarityConfig{ZeroDiagonal: true})
	if err != nil {
		t.Fatal(err)
	}
	out, err := st.Apply(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	sim := out.(pipeline.ItemSimilarity).Matrix
	for i := 0; i < sim.SymmetricDim(); i++ {
		if sim.At(i, i) != 0 {
			t.Errorf("diagonal (%d,%d) = %v, want 0", i, i, sim.At(i, i))
		}
	}
	if sim.At(0, 1) != 1 {
		t.Errorf("off-diagonal should be untouched, got %v", sim.At(0, 1))
	}
}

func TestNewSimilarity_RejectsUnknownNormalization(t *testing.T) {
	if _, err := NewSimilarity(SimilarityConfig{Normalization: "euclidean"}); err == nil {
		t.Error("unknown normalization should be rejected at construction")
	}
}
