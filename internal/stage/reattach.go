package stage

import (
	"context"
	"fmt"

	"github.com/weftlab/weft/internal/frame"
	"github.com/weftlab/weft/internal/pipeline"
)

// ReattachConfig names the identifier column of the output table. Dimension
// columns are named dim_0 .. dim_{k-1}.
type ReattachConfig struct {
	IDColumn string
}

// Reattach joins the dense embedding matrix back with the original item
// identifiers through the item index map, producing the pipeline's terminal
// labeled table. Row order equals index order 0..I-1.
type Reattach struct {
	cfg ReattachConfig
}

// NewReattach returns the reattachment stage. An empty identifier column
// name defaults to "item".
func NewReattach(cfg ReattachConfig) (*Reattach, error) {
	if cfg.IDColumn == "" {
		cfg.IDColumn = "item"
	}
	return &Reattach{cfg: cfg}, nil
}

// Name implements pipeline.Transform.
func (*Reattach) Name() string { return "reattach" }

// In implements pipeline.Transform.
func (*Reattach) In() pipeline.StateKind { return pipeline.KindItemEmbedding }

// Out implements pipeline.Transform.
func (*Reattach) Out() pipeline.StateKind { return pipeline.KindLabeledTable }

// Apply builds the labeled table: one identifier column followed by the k
// embedding columns.
func (st *Reattach) Apply(_ context.Context, s pipeline.State) (pipeline.State, error) {
	in, ok := s.(pipeline.ItemEmbedding)
	if !ok {
		return nil, fmt.Errorf("reattach: unexpected state %s", s.Kind())
	}
	rows, k := in.Matrix.Dims()
	if rows != in.Items.Len() {
		return nil, &pipeline.DimensionError{Msg: fmt.Sprintf(
			"embedding has %d rows, item index has %d identifiers", rows, in.Items.Len())}
	}

	out := frame.New()
	if err := out.AddStringColumn(st.cfg.IDColumn, in.Items.IDs()); err != nil {
		return nil, fmt.Errorf("reattach: %w", err)
	}
	for j := 0; j < k; j++ {
		col := make([]float64, rows)
		for i := 0; i < rows; i++ {
			col[i] = in.Matrix.At(i, j)
		}
		if err := out.AddFloatColumn(fmt.Sprintf("dim_%d", j), col); err != nil {
			return nil, fmt.Errorf("reattach: %w", err)
		}
	}

	return pipeline.LabeledTable{Frame: out, SingularValues: in.SingularValues}, nil
}
