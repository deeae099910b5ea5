package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/weftlab/weft/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "weft.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Runs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if run, err := s.LatestRun(ctx); err != nil || run != nil {
		t.Fatalf("empty store LatestRun = %v, %v", run, err)
	}

	first := &models.Run{
		ID:             "run-1",
		CreatedAt:      time.Now().Add(-time.Hour).UTC(),
		K:              8,
		Normalization:  "cosine",
		Inputs:         []string{"a.csv", "b.csv"},
		Links:          100,
		Items:          40,
		RowsIn:         500,
		RowsDeduped:    450,
		SingularValues: []float64{3.2, 1.1},
	}
	if err := s.SaveRun(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &models.Run{
		ID: "run-2", CreatedAt: time.Now().UTC(), K: 8, Normalization: "none",
		Links: 100, Items: 41, RowsIn: 510, RowsDeduped: 460,
	}
	if err := s.SaveRun(ctx, second); err != nil {
		t.Fatal(err)
	}

	latest, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != "run-2" {
		t.Errorf("LatestRun = %+v, want run-2", latest)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns = %d runs, want 2", len(runs))
	}
	got := runs[1]
	if got.ID != "run-1" || got.Normalization != "cosine" {
		t.Errorf("got %+v", got)
	}
	if len(got.Inputs) != 2 || got.Inputs[0] != "a.csv" {
		t.Errorf("inputs round-trip = %v", got.Inputs)
	}
	if len(got.SingularValues) != 2 || got.SingularValues[0] != 3.2 {
		t.Errorf("singular values round-trip = %v", got.SingularValues)
	}
}

func TestSQLiteStore_EmbeddingsRoundTripBits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	vec := []float64{1.0 / 3.0, -0.0, math.Pi, math.SmallestNonzeroFloat64}
	embs := []*models.Embedding{
		{ItemID: "i1", Vector: vec},
		{ItemID: "i2", Vector: []float64{0, 1, 2, 3}},
	}
	if err := s.ReplaceEmbeddings(ctx, "run-1", embs); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEmbedding(ctx, "i1")
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-1" {
		t.Errorf("run id = %s", got.RunID)
	}
	if len(got.Vector) != len(vec) {
		t.Fatalf("dim = %d, want %d", len(got.Vector), len(vec))
	}
	for i := range vec {
		if math.Float64bits(got.Vector[i]) != math.Float64bits(vec[i]) {
			t.Errorf("value %d: bits differ, got %v want %v", i, got.Vector[i], vec[i])
		}
	}

	if _, err := s.GetEmbedding(ctx, "missing"); err == nil {
		t.Error("expected error for unknown item")
	}
}

func TestSQLiteStore_ReplaceSwapsFullSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := []*models.Embedding{
		{ItemID: "stale-1", Vector: []float64{1}},
		{ItemID: "stale-2", Vector: []float64{2}},
	}
	if err := s.ReplaceEmbeddings(ctx, "run-1", old); err != nil {
		t.Fatal(err)
	}
	fresh := []*models.Embedding{{ItemID: "kept", Vector: []float64{3}}}
	if err := s.ReplaceEmbeddings(ctx, "run-2", fresh); err != nil {
		t.Fatal(err)
	}

	n, err := s.CountItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountItems = %d, want 1", n)
	}
	if _, err := s.GetEmbedding(ctx, "stale-1"); err == nil {
		t.Error("stale embedding should be gone after replace")
	}
	all, err := s.ListEmbeddings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ItemID != "kept" {
		t.Errorf("ListEmbeddings = %+v", all)
	}
}
