// Package e2e provides end-to-end tests; this file materializes the corpus
// as interaction files in every supported ingestion format.
package e2e

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// SupportedExtensions lists the interaction file formats exercised by the
// format-parity tests.
var SupportedExtensions = []string{".csv", ".tsv", ".xlsx", ".jsonl"}

// WriteInteractions writes the corpus interactions to path in the format
// implied by ext. The column names match the default configuration
// (link_id, item_id, weight).
func WriteInteractions(path, ext string, interactions []Interaction) error {
	switch ext {
	case ".csv":
		return writeSeparated(path, ',', interactions)
	case ".tsv":
		return writeSeparated(path, '\t', interactions)
	case ".xlsx":
		return writeExcel(path, interactions)
	case ".jsonl":
		return writeJSONL(path, interactions)
	default:
		return fmt.Errorf("unsupported extension %q", ext)
	}
}

// WriteItems writes item metadata as a csv with id and title columns, the
// shape the catalog refresh consumes.
func WriteItems(path, idColumn string, items []ItemMeta) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{idColumn, "title"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := w.Write([]string{item.ID, item.Title}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSeparated(path string, comma rune, interactions []Interaction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Comma = comma
	if err := w.Write([]string{"link_id", "item_id", "weight"}); err != nil {
		return err
	}
	for _, in := range interactions {
		row := []string{in.Link, in.Item, strconv.FormatFloat(in.Weight, 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeExcel(path string, interactions []Interaction) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"link_id", "item_id", "weight"}); err != nil {
		return err
	}
	for i, in := range interactions {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{in.Link, in.Item, strconv.FormatFloat(in.Weight, 'g', -1, 64)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeJSONL(path string, interactions []Interaction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, in := range interactions {
		record := map[string]interface{}{
			"link_id": in.Link,
			"item_id": in.Item,
			"weight":  in.Weight,
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}
