package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/xuri/excelize/v2"
)

const fieldSeparator = " | "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// chunkCSV emits one unit per data row. Rows are never filtered, a row whose
// values are all empty still becomes "col: " text.
func chunkCSV(data []byte) ([]commonModels.RawUnit, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	// a quote inside an unquoted field is kept as a literal
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, parseErrorf("no columns to parse from file")
	}
	if err != nil {
		return nil, wrapParse("reading csv header", err)
	}
	columns := normalizeHeader(header)

	var units []commonModels.RawUnit
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapParse(fmt.Sprintf("reading csv row %d", row), err)
		}
		if len(record) > len(columns) {
			line, _ := r.FieldPos(0)
			return nil, parseErrorf("expected %d fields in line %d, saw %d", len(columns), line, len(record))
		}
		units = append(units, commonModels.RawUnit{Position: row, Content: rowText(columns, record)})
	}
	return units, nil
}

// chunkXLSX reads the first sheet with the same header and row rules as csv.
func chunkXLSX(data []byte) ([]commonModels.RawUnit, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, wrapParse("opening xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErrorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, wrapParse(fmt.Sprintf("reading sheet %q", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, parseErrorf("sheet %q has no columns to parse", sheets[0])
	}

	// trailing empty cells are trimmed per row, so the widest row sets the columns
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	header := make([]string, width)
	copy(header, rows[0])
	columns := normalizeHeader(header)

	units := make([]commonModels.RawUnit, 0, len(rows)-1)
	for i, record := range rows[1:] {
		units = append(units, commonModels.RawUnit{Position: i, Content: rowText(columns, record)})
	}
	return units, nil
}

// normalizeHeader names blank columns "Unnamed: <i>" and suffixes repeated
// names with ".1", ".2" and so on.
func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int, len(header))
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		candidate := name
		for used[candidate] {
			suffix[name]++
			candidate = fmt.Sprintf("%s.%d", name, suffix[name])
		}
		used[candidate] = true
		columns[i] = candidate
	}
	return columns
}

// short rows are padded with empty values
func rowText(columns []string, record []string) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteString(fieldSeparator)
		}
		val := ""
		if i < len(record) {
			val = record[i]
		}
		b.WriteString(col)
		b.WriteString(": ")
		b.WriteString(val)
	}
	return b.String()
}
