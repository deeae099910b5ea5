// Package stage implements the pipeline transforms that turn interaction
// rows into labeled item embeddings.
package stage

import "fmt"

// Columns names the identifier and weight columns of the interaction table.
// Weight is optional in the data: when the column is absent every row weighs 1.
type Columns struct {
	Link   string
	Item   string
	Weight string
}

// Validate rejects empty identifier column names.
func (c Columns) Validate() error {
	if c.Link == "" {
		return fmt.Errorf("link column name must not be empty")
	}
	if c.Item == "" {
		return fmt.Errorf("item column name must not be empty")
	}
	if c.Link == c.Item {
		return fmt.Errorf("link and item columns must differ, both are %q", c.Link)
	}
	return nil
}
