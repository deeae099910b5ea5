// Package e2e provides end-to-end tests driving the full build over a
// synthetic interaction corpus.
package e2e

import "fmt"

// Interaction is one link-item event in the E2E corpus.
type Interaction struct {
	Link   string
	Item   string
	Weight float64
}

// ItemMeta is an item metadata entry (id, title) for the catalog.
type ItemMeta struct {
	ID    string
	Title string
}

// NeighborCase defines a query item and the items that may legitimately come
// back as its nearest neighbor. Within a cluster all items co-occur with the
// same links, so any other member of the cluster is a correct answer.
type NeighborCase struct {
	QueryItem     string
	ExpectedItems []string
	Description   string
}

// Corpus holds interactions, item metadata, and neighbor test cases.
type Corpus struct {
	Interactions []Interaction
	Items        []ItemMeta
	TestCases    []NeighborCase
	Clusters     int
	ItemsPerBand int
	LinksPerBand int
}

// BuildCorpus returns a clustered corpus: disjoint bands of links each
// interacting with every item of their own band and nothing else. The
// co-occurrence structure makes same-band items mutual nearest neighbors,
// and the similarity matrix is block diagonal with one dominant direction
// per band, so rank k = number of bands is exact.
func BuildCorpus() *Corpus {
	const (
		clusters     = 3
		itemsPerBand = 4
		linksPerBand = 10
	)
	c := &Corpus{
		Clusters:     clusters,
		ItemsPerBand: itemsPerBand,
		LinksPerBand: linksPerBand,
	}
	bandNames := []string{"alpha", "beta", "gamma"}

	for b := 0; b < clusters; b++ {
		items := make([]string, itemsPerBand)
		for i := range items {
			items[i] = fmt.Sprintf("%s-%d", bandNames[b], i+1)
			c.Items = append(c.Items, ItemMeta{
				ID:    items[i],
				Title: fmt.Sprintf("%s item %d", bandNames[b], i+1),
			})
		}
		for l := 0; l < linksPerBand; l++ {
			link := fmt.Sprintf("user-%s-%02d", bandNames[b], l)
			for _, item := range items {
				c.Interactions = append(c.Interactions, Interaction{
					Link: link, Item: item, Weight: 1,
				})
			}
		}
		// Repeat each band's first interaction so the build exercises
		// duplicate removal.
		first := c.Interactions[len(c.Interactions)-itemsPerBand*linksPerBand]
		c.Interactions = append(c.Interactions, first)

		others := make([]string, 0, itemsPerBand-1)
		for _, item := range items[1:] {
			others = append(others, item)
		}
		c.TestCases = append(c.TestCases, NeighborCase{
			QueryItem:     items[0],
			ExpectedItems: others,
			Description:   fmt.Sprintf("nearest neighbor of %s stays in band %s", items[0], bandNames[b]),
		})
	}
	return c
}

// UniquePairs is the number of distinct (link, item) pairs in the corpus.
func (c *Corpus) UniquePairs() int {
	return c.Clusters * c.ItemsPerBand * c.LinksPerBand
}

// contains reports whether want is one of the expected items.
func (n *NeighborCase) contains(want string) bool {
	for _, item := range n.ExpectedItems {
		if item == want {
			return true
		}
	}
	return false
}
