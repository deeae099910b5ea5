package e2e

import (
	"path/filepath"
	"testing"

	"github.com/weftlab/weft/internal/ingest"
	"github.com/weftlab/weft/internal/stage"
)

func defaultColumns() stage.Columns {
	return stage.Columns{Link: "link_id", Item: "item_id", Weight: "weight"}
}

func TestWriteInteractions_AllFormatsReadBack(t *testing.T) {
	corpus := BuildCorpus()
	reader, err := ingest.NewReader(defaultColumns())
	if err != nil {
		t.Fatal(err)
	}

	for _, ext := range SupportedExtensions {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "interactions"+ext)
			if err := WriteInteractions(path, ext, corpus.Interactions); err != nil {
				t.Fatalf("WriteInteractions: %v", err)
			}
			f, err := reader.Read(path)
			if err != nil {
				t.Fatalf("read %s: %v", ext, err)
			}
			if f.NumRows() != len(corpus.Interactions) {
				t.Fatalf("rows: got %d, want %d", f.NumRows(), len(corpus.Interactions))
			}
			links, _ := f.Column("link_id")
			items, _ := f.Column("item_id")
			weights, _ := f.Column("weight")
			for i, in := range corpus.Interactions {
				if links.StringAt(i) != in.Link {
					t.Fatalf("row %d link: got %q, want %q", i, links.StringAt(i), in.Link)
				}
				if items.StringAt(i) != in.Item {
					t.Fatalf("row %d item: got %q, want %q", i, items.StringAt(i), in.Item)
				}
				if weights.FloatAt(i) != in.Weight {
					t.Fatalf("row %d weight: got %v, want %v", i, weights.FloatAt(i), in.Weight)
				}
			}
		})
	}
}

func TestBuildCorpus_Shape(t *testing.T) {
	c := BuildCorpus()
	wantItems := c.Clusters * c.ItemsPerBand
	if len(c.Items) != wantItems {
		t.Errorf("items: got %d, want %d", len(c.Items), wantItems)
	}
	// One duplicated interaction per band on top of the unique pairs.
	wantRows := c.UniquePairs() + c.Clusters
	if len(c.Interactions) != wantRows {
		t.Errorf("interactions: got %d, want %d", len(c.Interactions), wantRows)
	}
	if len(c.TestCases) != c.Clusters {
		t.Errorf("test cases: got %d, want %d", len(c.TestCases), c.Clusters)
	}
	for _, tc := range c.TestCases {
		if tc.QueryItem == "" || len(tc.ExpectedItems) == 0 {
			t.Errorf("incomplete test case: %+v", tc)
		}
		if tc.contains(tc.QueryItem) {
			t.Errorf("query item %s listed among its own expected neighbors", tc.QueryItem)
		}
	}
}
