// Package ingest turns uploaded files into tables.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbon-assistant/server/internal/agent/schemamap"
)

// ErrNoHeader is returned for an upload without a header row.
var ErrNoHeader = errors.New("csv has no header row")

// ReadCSV reads a CSV document whose first record names the columns. Null
// tokens (blank, "NA", "null", "NaN" and the like) and infinities become
// missing values; cells that parse as numbers become numeric. Rows may be
// shorter or longer than the header.
func ReadCSV(r io.Reader) (schemamap.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return schemamap.Table{}, ErrNoHeader
	}
	if err != nil {
		return schemamap.Table{}, fmt.Errorf("read csv header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := schemamap.Table{Columns: header}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return schemamap.Table{}, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}
		row := make([]schemamap.Value, len(rec))
		for i, cell := range rec {
			row[i] = parseCell(cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseCell(cell string) schemamap.Value {
	s := strings.TrimSpace(cell)
	if schemamap.IsNullToken(s) {
		return schemamap.Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return schemamap.Null()
		}
		return schemamap.Num(f)
	}
	return schemamap.Str(s)
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
