// Package ingest loads raw tabular source files (CSV, XLSX) into typed
// tables. Column headers are normalized before mapping to the declared
// schema, so "Core_ID", "core id", and "coreid" all resolve to the same
// field. A required schema column with no matching header aborts the
// load; a present but unparsable cell degrades to a missing value with
// a logged warning.
package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/karstfen/soilcn/internal/table"
)

// Reader extracts a header row and data rows from one source format.
type Reader interface {
	CanRead(path string) bool
	Read(path string) (header []string, rows [][]string, err error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// ForPath selects a registered reader by file extension.
func ForPath(path string) (Reader, bool) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r, true
		}
	}
	return nil, false
}

// missingToken is the literal cell content treated as an explicit
// missing value in any column, matching the source data convention.
const missingToken = "NA"

// NormalizeHeader lower-cases a column header and strips the separator
// characters (underscores, periods, spaces) so source headers map onto
// schema field names regardless of their original styling.
func NormalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '.', ' ':
			return -1
		}
		return r
	}, name)
}

// Load reads the file at path and maps it onto the schema. Every schema
// column must be present (after header normalization); extra source
// columns are ignored. Cells equal to the missing token are Missing in
// every column kind; empty cells are Missing except in string columns,
// where a present-but-blank cell stays an empty string (the raw
// standard-composition field relies on that distinction).
func Load(path string, schema table.Schema, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	r, ok := ForPath(path)
	if !ok {
		return nil, &MalformedInputError{Path: path, Reason: "unsupported file format"}
	}
	header, rows, err := r.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(header) == 0 {
		return nil, &MalformedInputError{Path: path, Reason: "no header row"}
	}

	srcIdx := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, dup := srcIdx[key]; !dup {
			srcIdx[key] = i
		}
	}
	colSrc := make([]int, len(schema.Columns))
	for i, c := range schema.Columns {
		j, ok := srcIdx[c.Name]
		if !ok {
			return nil, &MalformedInputError{Path: path, Column: c.Name}
		}
		colSrc[i] = j
	}

	tab := table.New(schema)
	unparsable := make([]int, len(schema.Columns))
	for rowNum, src := range rows {
		row := make([]table.Value, len(schema.Columns))
		for i, c := range schema.Columns {
			j := colSrc[i]
			cell := ""
			if j < len(src) {
				cell = src[j]
			}
			v, ok := parseCell(cell, c)
			if !ok {
				unparsable[i]++
				v = table.Missing{}
			}
			row[i] = v
		}
		if err := tab.Append(row); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, rowNum+2, err)
		}
	}

	for i, n := range unparsable {
		if n > 0 {
			logger.Warn("unparsable cells treated as missing",
				zap.String("path", path),
				zap.String("column", schema.Columns[i].Name),
				zap.Int("cells", n))
		}
	}
	logger.Info("loaded source file",
		zap.String("path", path),
		zap.Int("rows", tab.NumRows()),
		zap.Int("columns", tab.NumCols()))
	return tab, nil
}

// parseCell converts one trimmed source cell into a typed value. The
// second return is false only for present-but-unparsable content.
func parseCell(cell string, c table.Column) (table.Value, bool) {
	s := strings.TrimSpace(cell)
	if s == missingToken {
		return table.Missing{}, true
	}
	switch c.Kind {
	case table.KindString:
		return table.String(s), true
	case table.KindFloat:
		if s == "" {
			return table.Missing{}, true
		}
		f, ok := parseNumber(s)
		if !ok {
			return nil, false
		}
		return table.Float(f), true
	case table.KindInt:
		if s == "" {
			return table.Missing{}, true
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return table.Int(n), true
		}
		// spreadsheet cells sometimes carry integers in float form
		if f, ok := parseNumber(s); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return table.Int(int64(f)), true
		}
		return nil, false
	case table.KindBool:
		if s == "" {
			return table.Missing{}, true
		}
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return nil, false
		}
		return table.Bool(b), true
	case table.KindFactor:
		if s == "" {
			return table.Missing{}, true
		}
		return table.Factor(s), true
	}
	return nil, false
}

// parseNumber parses a numeric cell, tolerating percent signs, blank
// and non-breaking spaces, and either comma or period decimal
// separators with the other character as a thousands separator.
func parseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, " ", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	dec := byte('.')
	cpos := strings.LastIndexByte(raw, ',')
	dpos := strings.LastIndexByte(raw, '.')
	if cpos >= 0 && dpos >= 0 {
		if cpos > dpos {
			dec = ','
		}
	} else if cpos >= 0 {
		dec = ','
	}
	for _, sep := range []byte{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
