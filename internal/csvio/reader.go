package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNoHeader = errors.New("csv has no header row")

// nullTokens are cell values treated as missing, matching what common
// spreadsheet and dataframe exports write for empty values.
var nullTokens = map[string]struct{}{
	"NaN": {}, "nan": {}, "NA": {}, "N/A": {}, "n/a": {},
	"null": {}, "NULL": {}, "None": {}, "<NA>": {},
}

// Record is one data row keyed by header name. Only cells that carry a
// value are stored, so a missing column and an empty cell look the same.
type Record struct {
	Line   int
	Fields map[string]string
}

// NewRecord builds a record from already keyed values, dropping missing cells.
func NewRecord(line int, values map[string]string) Record {
	rec := Record{Line: line, Fields: make(map[string]string, len(values))}
	for k, v := range values {
		rec.set(k, v)
	}
	return rec
}

// Get returns the cell for column and whether it is present.
func (r Record) Get(column string) (string, bool) {
	v, ok := r.Fields[column]
	return v, ok
}

func (r Record) set(column, raw string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	if _, null := nullTokens[v]; null {
		return
	}
	r.Fields[column] = v
}

// ReadRecords parses header-named CSV. Rows may be shorter or longer than
// the header; cells beyond the header are discarded.
func ReadRecords(in io.Reader) ([]Record, error) {
	r := csv.NewReader(bufio.NewReader(in))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		line, _ := r.FieldPos(0)
		rec := Record{Line: line, Fields: make(map[string]string, len(header))}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			rec.set(header[i], cell)
		}
		records = append(records, rec)
	}

	return records, nil
}
