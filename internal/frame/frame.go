// Package frame provides the tabular record set passed between pipeline stages.
package frame

import "fmt"

// ColumnKind is the value type of a column.
type ColumnKind int

const (
	// KindString holds identifier or free-form text values.
	KindString ColumnKind = iota
	// KindFloat holds numeric values (weights, embedding dimensions).
	KindFloat
)

// Column is a named sequence of values of a single kind.
type Column struct {
	Name string
	Kind ColumnKind
	strs []string
	nums []float64
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	if c.Kind == KindString {
		return len(c.strs)
	}
	return len(c.nums)
}

// StringAt returns the string value at row i. Valid only for KindString columns.
func (c *Column) StringAt(i int) string { return c.strs[i] }

// FloatAt returns the float value at row i. Valid only for KindFloat columns.
func (c *Column) FloatAt(i int) float64 { return c.nums[i] }

// Strings returns the backing string slice (nil for float columns).
// The slice is shared with the column; callers that keep it must not
// mutate it after handing the frame to the next stage.
func (c *Column) Strings() []string { return c.strs }

// Floats returns the backing float slice (nil for string columns).
func (c *Column) Floats() []float64 { return c.nums }

// Frame is an ordered collection of equal-length named columns. Column names
// are unique. A frame is owned by whichever stage currently holds it; a stage
// may mutate it in place or build a replacement, and must return the
// authoritative version.
type Frame struct {
	names []string
	cols  map[string]*Column
}

// New returns an empty frame with no columns.
func New() *Frame {
	return &Frame{cols: make(map[string]*Column)}
}

// AddStringColumn appends a string column. The length must match existing
// columns; the name must be unused.
func (f *Frame) AddStringColumn(name string, values []string) error {
	if err := f.check(name, len(values)); err != nil {
		return err
	}
	f.names = append(f.names, name)
	f.cols[name] = &Column{Name: name, Kind: KindString, strs: values}
	return nil
}

// AddFloatColumn appends a float column. The length must match existing
// columns; the name must be unused.
func (f *Frame) AddFloatColumn(name string, values []float64) error {
	if err := f.check(name, len(values)); err != nil {
		return err
	}
	f.names = append(f.names, name)
	f.cols[name] = &Column{Name: name, Kind: KindFloat, nums: values}
	return nil
}

func (f *Frame) check(name string, n int) error {
	if name == "" {
		return fmt.Errorf("column name must not be empty")
	}
	if _, ok := f.cols[name]; ok {
		return fmt.Errorf("duplicate column %q", name)
	}
	if len(f.names) > 0 && n != f.NumRows() {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, n, f.NumRows())
	}
	return nil
}

// Column returns the column with the given name.
func (f *Frame) Column(name string) (*Column, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// Has reports whether a column with the given name exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// NumRows returns the row count (0 for a frame with no columns).
func (f *Frame) NumRows() int {
	if len(f.names) == 0 {
		return 0
	}
	return f.cols[f.names[0]].Len()
}

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.names) }

// Retain returns a new frame containing only the given rows, in the given
// order, across all columns. Row indices must be valid.
func (f *Frame) Retain(rows []int) *Frame {
	out := New()
	for _, name := range f.names {
		c := f.cols[name]
		switch c.Kind {
		case KindString:
			vals := make([]string, len(rows))
			for i, r := range rows {
				vals[i] = c.strs[r]
			}
			_ = out.AddStringColumn(name, vals)
		case KindFloat:
			vals := make([]float64, len(rows))
			for i, r := range rows {
				vals[i] = c.nums[r]
			}
			_ = out.AddFloatColumn(name, vals)
		}
	}
	return out
}
