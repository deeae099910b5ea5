package stage

import (
	"context"
	"fmt"

	"github.com/weftlab/weft/internal/frame"
	"github.com/weftlab/weft/internal/pipeline"
)

// Dedup removes duplicate (link, item) interaction rows, keeping the first
// occurrence of each pair in row order. All columns survive; row count only
// shrinks. Applying it twice yields the same result as once.
type Dedup struct {
	cols Columns
}

// NewDedup returns a deduplication stage keyed on the given identifier columns.
func NewDedup(cols Columns) (*Dedup, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}
	return &Dedup{cols: cols}, nil
}

// Name implements pipeline.Transform.
func (*Dedup) Name() string { return "dedup" }

// In implements pipeline.Transform.
func (*Dedup) In() pipeline.StateKind { return pipeline.KindRows }

// Out implements pipeline.Transform.
func (*Dedup) Out() pipeline.StateKind { return pipeline.KindRows }

type pairKey struct {
	link, item string
}

// Apply drops repeated (link, item) pairs. An empty input produces an empty
// output, not an error.
func (d *Dedup) Apply(_ context.Context, s pipeline.State) (pipeline.State, error) {
	rows, ok := s.(pipeline.Rows)
	if !ok {
		return nil, fmt.Errorf("dedup: unexpected state %s", s.Kind())
	}
	links, items, err := identifierColumns(rows.Frame, d.cols)
	if err != nil {
		return nil, err
	}

	n := rows.Frame.NumRows()
	seen := make(map[pairKey]struct{}, n)
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		key := pairKey{link: links.StringAt(i), item: items.StringAt(i)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == n {
		return rows, nil
	}
	return pipeline.Rows{Frame: rows.Frame.Retain(keep)}, nil
}

// identifierColumns fetches the link and item columns, raising a SchemaError
// when one is missing or not a string column.
func identifierColumns(f *frame.Frame, cols Columns) (links, items *frame.Column, err error) {
	links, ok := f.Column(cols.Link)
	if !ok {
		return nil, nil, &pipeline.SchemaError{Column: cols.Link}
	}
	if links.Kind != frame.KindString {
		return nil, nil, &pipeline.SchemaError{Column: cols.Link, Reason: "identifier column must hold strings"}
	}
	items, ok = f.Column(cols.Item)
	if !ok {
		return nil, nil, &pipeline.SchemaError{Column: cols.Item}
	}
	if items.Kind != frame.KindString {
		return nil, nil, &pipeline.SchemaError{Column: cols.Item, Reason: "identifier column must hold strings"}
	}
	return links, items, nil
}
