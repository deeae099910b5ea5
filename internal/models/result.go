package models

// Neighbor is a single nearest-neighbor hit.
type Neighbor struct {
	ItemID string  `json:"item_id"`
	Title  string  `json:"title,omitempty"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// SimilarResponse is the response for a similarity query.
type SimilarResponse struct {
	Query     string      `json:"query,omitempty"`
	Neighbors []*Neighbor `json:"neighbors"`
	QueryTime int64       `json:"query_time_ms"`
}

// Status summarizes the served state: how many items are indexed, the
// latest run's parameters, and whether the catalog is enabled.
type Status struct {
	Items          int     `json:"items"`
	CatalogEnabled bool    `json:"catalog_enabled"`
	CatalogSize    uint64  `json:"catalog_size,omitempty"`
	LatestRun      *Run    `json:"latest_run,omitempty"`
	Version        string  `json:"version,omitempty"`
}
