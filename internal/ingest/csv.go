package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// readCSV parses comma- or tab-separated content. The first record is the
// header; a file with only a header yields zero rows, not an error.
func readCSV(content []byte, comma rune) (*table, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = comma
	r.FieldsPerRecord = -1 // ragged rows are padded during assembly

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, rec)
	}
	return &table{header: header, rows: rows}, nil
}
