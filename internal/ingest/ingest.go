// Package ingest reads tabular interaction data into the pipeline's input frame.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/weftlab/weft/internal/frame"
	"github.com/weftlab/weft/internal/pipeline"
	"github.com/weftlab/weft/internal/stage"
)

// table is one parsed input file: a header row plus string records.
type table struct {
	header []string
	rows   [][]string
}

// Reader loads one or more interaction tables into a single frame. Format is
// chosen by extension: .csv, .tsv, .xlsx (first sheet), .jsonl. Every file
// must carry the configured link and item columns; the weight column is
// optional and rows from files without it weigh 1.
type Reader struct {
	cols stage.Columns
}

// NewReader returns a reader keyed on the given column names.
func NewReader(cols stage.Columns) (*Reader, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}
	return &Reader{cols: cols}, nil
}

// Read parses the given paths and concatenates their rows in argument order.
// Extra columns are preserved as strings; a column absent from some files is
// padded with empty strings for their rows.
func (r *Reader) Read(paths ...string) (*frame.Frame, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("ingest: no input paths")
	}
	tables := make([]*table, 0, len(paths))
	for _, path := range paths {
		t, err := r.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", path, err)
		}
		for _, required := range []string{r.cols.Link, r.cols.Item} {
			if !contains(t.header, required) {
				return nil, fmt.Errorf("ingest %s: %w", path,
					&pipeline.SchemaError{Column: required})
			}
		}
		tables = append(tables, t)
	}
	return r.assemble(tables)
}

func (r *Reader) readFile(path string) (*table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(content, ',')
	case ".tsv":
		return readCSV(content, '\t')
	case ".xlsx":
		return readExcel(content)
	case ".jsonl":
		return readJSONL(content)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

// assemble unions the columns of all tables and builds the frame: string
// columns for identifiers and extras, a float column for the weight.
func (r *Reader) assemble(tables []*table) (*frame.Frame, error) {
	var names []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, name := range t.header {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	total := 0
	for _, t := range tables {
		total += len(t.rows)
	}

	columns := make(map[string][]string, len(names))
	for _, name := range names {
		columns[name] = make([]string, 0, total)
	}
	for _, t := range tables {
		pos := make(map[string]int, len(t.header))
		for i, name := range t.header {
			pos[name] = i
		}
		for _, row := range t.rows {
			for _, name := range names {
				v := ""
				if i, ok := pos[name]; ok && i < len(row) {
					v = row[i]
				}
				columns[name] = append(columns[name], v)
			}
		}
	}

	hasWeight := r.cols.Weight != "" && seen[r.cols.Weight]
	f := frame.New()
	for _, name := range names {
		if hasWeight && name == r.cols.Weight {
			weights, err := parseWeights(columns[name], name)
			if err != nil {
				return nil, err
			}
			if err := f.AddFloatColumn(name, weights); err != nil {
				return nil, fmt.Errorf("ingest: %w", err)
			}
			continue
		}
		if err := f.AddStringColumn(name, columns[name]); err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
	}
	return f, nil
}

// parseWeights converts the weight column to floats. Empty cells (rows from
// files without the column) default to 1.
func parseWeights(values []string, column string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == "" {
			out[i] = 1
			continue
		}
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &pipeline.SchemaError{Column: column,
				Reason: fmt.Sprintf("malformed weight %q at row %d", v, i)}
		}
		out[i] = w
	}
	return out, nil
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
