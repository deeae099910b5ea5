package models

import "fmt"

// SimilarQuery represents a nearest-neighbor request against the built
// embeddings, either by example vector or by item identifier.
type SimilarQuery struct {
	ItemID string    `json:"item_id,omitempty"`
	Vector []float64 `json:"vector,omitempty"`
	Limit  int       `json:"limit,omitempty"`
}

// Validate ensures the query names exactly one of item or vector and
// normalizes the limit.
func (q *SimilarQuery) Validate() error {
	if q.ItemID == "" && len(q.Vector) == 0 {
		return fmt.Errorf("either item_id or vector is required")
	}
	if q.ItemID != "" && len(q.Vector) > 0 {
		return fmt.Errorf("item_id and vector are mutually exclusive")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
