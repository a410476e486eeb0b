package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// #region row
// Row is one data row of a sheet export, addressed by header name.
type Row struct {
	raw     []string
	headers map[string]int
}

// Text returns the cell under header.
func (r Row) Text(header string) (string, bool) {
	i, ok := r.headers[header]
	if !ok || i >= len(r.raw) {
		return "", false
	}
	return strings.TrimSpace(r.raw[i]), true
}

// StringSlice splits the cell under header on sep. An empty cell is an empty
// slice.
func (r Row) StringSlice(header, sep string) ([]string, bool) {
	cell, ok := r.Text(header)
	if !ok {
		return nil, false
	}
	if cell == "" {
		return []string{}, true
	}
	parts := strings.Split(cell, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

// Bool reads a spreadsheet checkbox: "TRUE" is true, anything else false.
func (r Row) Bool(header string) (bool, bool) {
	cell, ok := r.Text(header)
	if !ok {
		return false, false
	}
	return strings.EqualFold(cell, "TRUE"), true
}

// Int reads an integer cell; empty is 0.
func (r Row) Int(header string) (int, bool) {
	cell, ok := r.Text(header)
	if !ok {
		return 0, false
	}
	if cell == "" {
		return 0, true
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0, false
	}
	return n, true
}

// #endregion row

// #region read
// RowsFromRecords treats the first record as the header line.
func RowsFromRecords(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	headers := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		headers[strings.TrimSpace(h)] = i
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{raw: rec, headers: headers})
	}
	return rows
}

// ReadFile reads a CSV export.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", path, err)
	}
	return RowsFromRecords(records), nil
}

// #endregion read
