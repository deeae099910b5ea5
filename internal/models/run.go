// Package models defines core data structures for pipeline runs, embeddings,
// and neighbor queries.
package models

import "time"

// Run records the metadata of one completed pipeline run.
type Run struct {
	ID             string    `json:"id" db:"id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	K              int       `json:"k" db:"k"`
	Normalization  string    `json:"normalization" db:"normalization"`
	Inputs         []string  `json:"inputs" db:"inputs"`
	Links          int       `json:"links" db:"links"`
	Items          int       `json:"items" db:"items"`
	RowsIn         int       `json:"rows_in" db:"rows_in"`
	RowsDeduped    int       `json:"rows_deduped" db:"rows_deduped"`
	SingularValues []float64 `json:"singular_values" db:"singular_values"`
	ElapsedMS      int64     `json:"elapsed_ms" db:"elapsed_ms"`
}

// Embedding is one item's dense vector as persisted by a run.
type Embedding struct {
	ItemID string    `json:"item_id" db:"item_id"`
	RunID  string    `json:"run_id" db:"run_id"`
	Vector []float64 `json:"vector" db:"-"`
}
