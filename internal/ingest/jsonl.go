package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// readJSONL parses one JSON object per line. The header is the union of keys
// across all lines, sorted for a stable column order; numbers keep their
// shortest decimal form so weights survive the string round-trip exactly.
func readJSONL(content []byte) (*table, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var objects []map[string]json.Number
	keys := make(map[string]bool)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var generic map[string]any
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&generic); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obj := make(map[string]json.Number, len(generic))
		for k, v := range generic {
			keys[k] = true
			obj[k] = toNumber(v)
		}
		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(header))
		for j, k := range header {
			row[j] = string(obj[k])
		}
		rows[i] = row
	}
	return &table{header: header, rows: rows}, nil
}

// toNumber renders a decoded JSON value as its string cell.
func toNumber(v any) json.Number {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return json.Number(x)
	case json.Number:
		return x
	case bool:
		return json.Number(strconv.FormatBool(x))
	default:
		b, _ := json.Marshal(x)
		return json.Number(b)
	}
}
