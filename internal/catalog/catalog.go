// Package catalog provides a Bleve index over item metadata so items can be
// found by title.
package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// Item is one catalog entry.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Hit is a single catalog search result.
type Hit struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Catalog wraps a Bleve index keyed by item ID.
type Catalog struct {
	index bleve.Index
}

// Open creates or opens a catalog index at path. An existing index is reused;
// remove the directory to force a rebuild after a mapping change.
func Open(path string) (*Catalog, error) {
	im := bleve.NewIndexMapping()

	itemMapping := bleve.NewDocumentMapping()
	titleMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query
	// matches the exact words of the title.
	titleMapping.Analyzer = standard.Name
	itemMapping.AddFieldMappingsAt("title", titleMapping)
	itemMapping.AddFieldMappingsAt("id", bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("item", itemMapping)
	im.DefaultType = "item"
	im.DefaultMapping = itemMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open catalog index: %w", openErr)
		}
		return &Catalog{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	return &Catalog{index: index}, nil
}

// IndexItems indexes the given items in one batch, replacing entries with the
// same ID.
func (c *Catalog) IndexItems(ctx context.Context, items []Item) error {
	batch := c.index.NewBatch()
	for _, item := range items {
		if item.ID == "" {
			return fmt.Errorf("catalog item with empty id")
		}
		if err := batch.Index(item.ID, item); err != nil {
			return fmt.Errorf("batch item %s: %w", item.ID, err)
		}
	}
	return c.index.Batch(batch)
}

// Search runs a match query over titles and returns up to limit hits.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]*Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("title")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"title"}

	results, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	out := make([]*Hit, len(results.Hits))
	for i, hit := range results.Hits {
		h := &Hit{ID: hit.ID, Score: hit.Score}
		if title, ok := hit.Fields["title"].(string); ok {
			h.Title = title
		}
		out[i] = h
	}
	return out, nil
}

// Title returns the stored title for an item ID, or "" when unknown.
func (c *Catalog) Title(ctx context.Context, id string) string {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Size = 1
	req.Fields = []string{"title"}
	results, err := c.index.SearchInContext(ctx, req)
	if err != nil || len(results.Hits) == 0 {
		return ""
	}
	title, _ := results.Hits[0].Fields["title"].(string)
	return title
}

// Count returns the number of indexed items.
func (c *Catalog) Count() (uint64, error) {
	return c.index.DocCount()
}

// Close releases the underlying index.
func (c *Catalog) Close() error {
	return c.index.Close()
}
