package stage

import (
	"context"
	"fmt"
	"math"

	"github.com/weftlab/weft/internal/frame"
	"github.com/weftlab/weft/internal/matrix"
	"github.com/weftlab/weft/internal/pipeline"
)

// SparseBuilder maps distinct link and item identifiers to contiguous indices
// in first-seen order and builds the sparse link x item matrix. Weights for a
// repeated pair are summed; deduplication upstream normally prevents repeats,
// but the builder aggregates regardless.
type SparseBuilder struct {
	cols Columns
}

// NewSparseBuilder returns a matrix-building stage over the given columns.
func NewSparseBuilder(cols Columns) (*SparseBuilder, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}
	return &SparseBuilder{cols: cols}, nil
}

// Name implements pipeline.Transform.
func (*SparseBuilder) Name() string { return "sparse-builder" }

// In implements pipeline.Transform.
func (*SparseBuilder) In() pipeline.StateKind { return pipeline.KindRows }

// Out implements pipeline.Transform.
func (*SparseBuilder) Out() pipeline.StateKind { return pipeline.KindLinkItemMatrix }

// Apply builds the matrix and both index maps. An empty row set cannot
// produce a matrix and fails with an EmptyInputError.
func (b *SparseBuilder) Apply(_ context.Context, s pipeline.State) (pipeline.State, error) {
	rows, ok := s.(pipeline.Rows)
	if !ok {
		return nil, fmt.Errorf("sparse-builder: unexpected state %s", s.Kind())
	}
	links, items, err := identifierColumns(rows.Frame, b.cols)
	if err != nil {
		return nil, err
	}
	n := rows.Frame.NumRows()
	if n == 0 {
		return nil, &pipeline.EmptyInputError{Context: "no interaction rows to build a matrix from"}
	}
	weights, err := weightColumn(rows.Frame, b.cols.Weight)
	if err != nil {
		return nil, err
	}

	linkIndex := matrix.NewIndex()
	itemIndex := matrix.NewIndex()
	for i := 0; i < n; i++ {
		linkIndex.Add(links.StringAt(i))
		itemIndex.Add(items.StringAt(i))
	}

	builder := matrix.NewBuilder(linkIndex.Len(), itemIndex.Len())
	for i := 0; i < n; i++ {
		w := 1.0
		if weights != nil {
			w = weights.FloatAt(i)
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, &pipeline.NumericError{Op: "sparse-builder",
					Err: fmt.Errorf("non-finite weight %v at row %d", w, i)}
			}
		}
		li, _ := linkIndex.Lookup(links.StringAt(i))
		ii, _ := itemIndex.Lookup(items.StringAt(i))
		builder.Add(li, ii, w)
	}

	return pipeline.LinkItemMatrix{
		Matrix: builder.Build(),
		Links:  linkIndex,
		Items:  itemIndex,
	}, nil
}

// weightColumn returns the weight column when present. A missing column means
// every row weighs 1; a present column of the wrong kind is a schema fault.
func weightColumn(f *frame.Frame, name string) (*frame.Column, error) {
	if name == "" {
		return nil, nil
	}
	c, ok := f.Column(name)
	if !ok {
		return nil, nil
	}
	if c.Kind != frame.KindFloat {
		return nil, &pipeline.SchemaError{Column: name, Reason: "weight column must hold numbers"}
	}
	return c, nil
}
