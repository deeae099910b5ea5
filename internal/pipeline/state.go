package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/weftlab/weft/internal/frame"
	"github.com/weftlab/weft/internal/matrix"
)

// StateKind identifies the shape of the value flowing between stages.
type StateKind int

const (
	// KindRows is a tabular record set of interaction rows.
	KindRows StateKind = iota
	// KindLinkItemMatrix is a sparse link x item matrix with its index maps.
	KindLinkItemMatrix
	// KindItemSimilarity is a symmetric item x item similarity matrix.
	KindItemSimilarity
	// KindItemEmbedding is a dense item x k embedding matrix.
	KindItemEmbedding
	// KindLabeledTable is the terminal table of identifier-labeled embeddings.
	KindLabeledTable
)

func (k StateKind) String() string {
	switch k {
	case KindRows:
		return "rows"
	case KindLinkItemMatrix:
		return "link-item matrix"
	case KindItemSimilarity:
		return "item similarity"
	case KindItemEmbedding:
		return "item embedding"
	case KindLabeledTable:
		return "labeled table"
	default:
		return "unknown"
	}
}

// State is the value passed between stages. The variants below form a closed
// set; each stage declares the kind it expects and the kind it produces, and
// the executor checks the chain at construction time.
type State interface {
	Kind() StateKind
}

// Rows carries interaction rows between the tabular stages.
type Rows struct {
	Frame *frame.Frame
}

// Kind implements State.
func (Rows) Kind() StateKind { return KindRows }

// LinkItemMatrix carries the sparse matrix and both identifier index maps.
// The item index travels with every later state so the reattachment stage can
// restore the original identifiers.
type LinkItemMatrix struct {
	Matrix *matrix.Sparse
	Links  *matrix.Index
	Items  *matrix.Index
}

// Kind implements State.
func (LinkItemMatrix) Kind() StateKind { return KindLinkItemMatrix }

// ItemSimilarity carries the symmetric item x item similarity matrix.
type ItemSimilarity struct {
	Matrix *mat.SymDense
	Items  *matrix.Index
}

// Kind implements State.
func (ItemSimilarity) Kind() StateKind { return KindItemSimilarity }

// ItemEmbedding carries the reduced dense matrix; row r is the embedding of
// the item at position r in Items. SingularValues holds the top-k singular
// values of the decomposition that produced the embedding.
type ItemEmbedding struct {
	Matrix         *mat.Dense
	SingularValues []float64
	Items          *matrix.Index
}

// Kind implements State.
func (ItemEmbedding) Kind() StateKind { return KindItemEmbedding }

// LabeledTable is the terminal artifact: one identifier column followed by k
// numeric columns, row order equal to item index order. The singular values
// of the reduction ride along for run metadata.
type LabeledTable struct {
	Frame          *frame.Frame
	SingularValues []float64
}

// Kind implements State.
func (LabeledTable) Kind() StateKind { return KindLabeledTable }
