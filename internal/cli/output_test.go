package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/weftlab/weft/internal/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSimilarResults_JSON(t *testing.T) {
	response := &models.SimilarResponse{
		Query:     "i1",
		QueryTime: 3,
		Neighbors: []*models.Neighbor{
			{ItemID: "i2", Title: "Second Item", Score: 0.97, Rank: 1},
			{ItemID: "i3", Score: 0.42, Rank: 2},
		},
	}
	var buf bytes.Buffer
	if err := WriteSimilarResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSimilarResults(json): %v", err)
	}
	var decoded models.SimilarResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "i1" || len(decoded.Neighbors) != 2 {
		t.Errorf("decoded: got %+v", decoded)
	}
	if decoded.Neighbors[0].ItemID != "i2" || decoded.Neighbors[0].Rank != 1 {
		t.Errorf("first neighbor: got %+v", decoded.Neighbors[0])
	}
}

func TestWriteSimilarResults_text(t *testing.T) {
	response := &models.SimilarResponse{
		Query:     "i1",
		QueryTime: 3,
		Neighbors: []*models.Neighbor{
			{ItemID: "i2", Title: "Second Item", Score: 0.97, Rank: 1},
		},
	}
	var buf bytes.Buffer
	if err := WriteSimilarResults(&buf, response, OutputText); err != nil {
		t.Fatalf("WriteSimilarResults(text): %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Found 1 neighbors of i1", "i2", "0.9700", "Second Item"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteStatus_text(t *testing.T) {
	status := &models.Status{
		Items:          12,
		CatalogEnabled: true,
		CatalogSize:    12,
		Version:        "dev",
		LatestRun: &models.Run{
			ID:             "r1",
			CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			K:              16,
			Normalization:  "cosine",
			RowsIn:         100,
			RowsDeduped:    80,
			Links:          9,
			Items:          12,
			SingularValues: []float64{3.5, 1.25},
		},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatalf("WriteStatus(text): %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"items:            12",
		"catalog_enabled:  true",
		"run_id:           r1",
		"normalization:    cosine",
		"singular_values:  3.5, 1.25",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRunSummary_JSON(t *testing.T) {
	run := &models.Run{ID: "r1", K: 8, Normalization: "none", Items: 3}
	var buf bytes.Buffer
	if err := WriteRunSummary(&buf, run, OutputJSON); err != nil {
		t.Fatalf("WriteRunSummary(json): %v", err)
	}
	var decoded models.Run
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("run summary JSON decode: %v", err)
	}
	if decoded.ID != "r1" || decoded.K != 8 {
		t.Errorf("decoded run: got %+v", decoded)
	}
}

func TestFormatSingularValues_elides(t *testing.T) {
	sigma := make([]float64, 20)
	for i := range sigma {
		sigma[i] = float64(20 - i)
	}
	out := formatSingularValues(sigma, 4)
	if !strings.Contains(out, "(20 total)") {
		t.Errorf("expected elision marker, got %q", out)
	}
	if strings.Count(out, ",") != 4 {
		t.Errorf("expected 4 shown values plus marker, got %q", out)
	}
}
