// Package table models the normalized in-memory tables the pipeline
// passes between stages: a declared schema of typed columns and rows of
// sealed values with explicit missing cells. Tables are produced once by
// their builder and treated as immutable afterwards; joins and derived
// stages construct new tables rather than mutating inputs.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Table pairs a schema with its rows. Rows are positional: row[i]
// belongs to Schema.Columns[i].
type Table struct {
	Schema Schema
	Rows   [][]Value
}

// New returns an empty table over the given schema.
func New(schema Schema) *Table {
	return &Table{Schema: schema}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the number of declared columns.
func (t *Table) NumCols() int { return len(t.Schema.Columns) }

// Col returns the position of the named column, or -1 when absent.
func (t *Table) Col(name string) int { return t.Schema.Index(name) }

// Append adds a row after checking its arity and cell kinds against the
// schema. Factor cells must be declared levels.
func (t *Table) Append(row []Value) error {
	if len(row) != len(t.Schema.Columns) {
		return fmt.Errorf("row has %d cells, schema declares %d columns", len(row), len(t.Schema.Columns))
	}
	for i, c := range t.Schema.Columns {
		if err := c.checkValue(row[i]); err != nil {
			return err
		}
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// EncodeRow renders a row as a positional JSON array: Missing cells
// become null, factors and strings become JSON strings, numbers and
// booleans their JSON forms. The inverse is Schema.DecodeRow.
func (s Schema) EncodeRow(row []Value) ([]byte, error) {
	if len(row) != len(s.Columns) {
		return nil, fmt.Errorf("row has %d cells, schema declares %d columns", len(row), len(s.Columns))
	}
	out := make([]any, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case nil, Missing:
			out[i] = nil
		case Float:
			out[i] = float64(x)
		case Int:
			out[i] = int64(x)
		case String:
			out[i] = string(x)
		case Bool:
			out[i] = bool(x)
		case Factor:
			out[i] = string(x)
		default:
			return nil, fmt.Errorf("column %q: unknown value type %T", s.Columns[i].Name, v)
		}
	}
	return json.Marshal(out)
}

// DecodeRow parses a positional JSON array against the schema. JSON
// null becomes Missing; numbers decode per the declared kind; factor
// labels are checked against the column's level set.
func (s Schema) DecodeRow(data []byte) ([]Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	if len(raw) != len(s.Columns) {
		return nil, fmt.Errorf("row has %d cells, schema declares %d columns", len(raw), len(s.Columns))
	}
	row := make([]Value, len(raw))
	for i, cell := range raw {
		v, err := s.Columns[i].decodeCell(cell)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func (c Column) decodeCell(cell any) (Value, error) {
	if cell == nil {
		return Missing{}, nil
	}
	switch c.Kind {
	case KindFloat:
		n, ok := cell.(json.Number)
		if !ok {
			return nil, fmt.Errorf("column %q: expected number, got %T", c.Name, cell)
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		return Float(f), nil
	case KindInt:
		n, ok := cell.(json.Number)
		if !ok {
			return nil, fmt.Errorf("column %q: expected number, got %T", c.Name, cell)
		}
		v, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("column %q: %q is not an integer", c.Name, n.String())
		}
		return Int(v), nil
	case KindString:
		str, ok := cell.(string)
		if !ok {
			return nil, fmt.Errorf("column %q: expected string, got %T", c.Name, cell)
		}
		return String(str), nil
	case KindBool:
		b, ok := cell.(bool)
		if !ok {
			return nil, fmt.Errorf("column %q: expected bool, got %T", c.Name, cell)
		}
		return Bool(b), nil
	case KindFactor:
		label, ok := cell.(string)
		if !ok {
			return nil, fmt.Errorf("column %q: expected factor label, got %T", c.Name, cell)
		}
		v := Factor(label)
		if err := c.checkValue(v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("column %q: unknown kind %s", c.Name, c.Kind)
}
