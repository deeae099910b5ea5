// Package export serializes the pipeline's terminal labeled table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/weftlab/weft/internal/frame"
)

// Format selects the output encoding.
type Format string

const (
	// FormatCSV writes a header row plus one record per item.
	FormatCSV Format = "csv"
	// FormatJSONL writes one JSON object per item.
	FormatJSONL Format = "jsonl"
)

// WriteFile serializes f to path in the given format, creating parent
// directories as needed.
func WriteFile(path string, format Format, f *frame.Frame) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	switch format {
	case FormatCSV:
		err = WriteCSV(out, f)
	case FormatJSONL:
		err = WriteJSONL(out, f)
	default:
		err = fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}
	return out.Close()
}

// WriteCSV writes the frame as CSV. Floats use the shortest representation
// that round-trips exactly, so identical runs produce identical bytes.
func WriteCSV(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	names := f.Names()
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(names))
	for i := 0; i < f.NumRows(); i++ {
		for j, name := range names {
			c, _ := f.Column(name)
			record[j] = cellString(c, i)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes one object per row, keyed by column name.
func WriteJSONL(w io.Writer, f *frame.Frame) error {
	names := f.Names()
	enc := json.NewEncoder(w)
	for i := 0; i < f.NumRows(); i++ {
		obj := make(map[string]any, len(names))
		for _, name := range names {
			c, _ := f.Column(name)
			if c.Kind == frame.KindFloat {
				obj[name] = c.FloatAt(i)
			} else {
				obj[name] = c.StringAt(i)
			}
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

func cellString(c *frame.Column, row int) string {
	if c.Kind == frame.KindFloat {
		return strconv.FormatFloat(c.FloatAt(row), 'g', -1, 64)
	}
	return c.StringAt(row)
}
