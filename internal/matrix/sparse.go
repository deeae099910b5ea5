package matrix

import "sort"

// Entry is one stored cell of a sparse row.
type Entry struct {
	Col int
	Val float64
}

// Sparse is a row-major sparse matrix. Rows hold only non-zero entries,
// sorted by column. Duplicate additions are aggregated at build time, so the
// matrix is well-formed even if the input still contains repeated pairs.
type Sparse struct {
	rows, cols int
	data       [][]Entry
	nnz        int
}

// Builder accumulates (row, col, value) triplets; values for the same cell sum.
type Builder struct {
	rows, cols int
	acc        []map[int]float64
}

// NewBuilder returns a builder for a rows x cols sparse matrix.
func NewBuilder(rows, cols int) *Builder {
	return &Builder{rows: rows, cols: cols, acc: make([]map[int]float64, rows)}
}

// Add accumulates v into cell (row, col). Panics when the indices are out of
// range, mirroring gonum's convention for programmer errors.
func (b *Builder) Add(row, col int, v float64) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		panic("matrix: index out of range")
	}
	if b.acc[row] == nil {
		b.acc[row] = make(map[int]float64)
	}
	b.acc[row][col] += v
}

// Build finalizes the accumulated entries into a Sparse with sorted rows.
func (b *Builder) Build() *Sparse {
	m := &Sparse{rows: b.rows, cols: b.cols, data: make([][]Entry, b.rows)}
	for r, cells := range b.acc {
		if len(cells) == 0 {
			continue
		}
		row := make([]Entry, 0, len(cells))
		for c, v := range cells {
			row = append(row, Entry{Col: c, Val: v})
		}
		sort.Slice(row, func(i, j int) bool { return row[i].Col < row[j].Col })
		m.data[r] = row
		m.nnz += len(row)
	}
	return m
}

// Dims returns the matrix shape.
func (m *Sparse) Dims() (rows, cols int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *Sparse) NNZ() int { return m.nnz }

// Row returns the entries of row i, sorted by column. The slice is shared
// with the matrix and must not be mutated.
func (m *Sparse) Row(i int) []Entry { return m.data[i] }

// At returns the value at (i, j), zero when the cell is not stored.
func (m *Sparse) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic("matrix: index out of range")
	}
	row := m.data[i]
	k := sort.Search(len(row), func(n int) bool { return row[n].Col >= j })
	if k < len(row) && row[k].Col == j {
		return row[k].Val
	}
	return 0
}
