package table

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Kind identifies the declared type of a column.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindString
	KindBool
	KindFactor
)

var kindNames = map[Kind]string{
	KindFloat:  "float",
	KindInt:    "int",
	KindString: "string",
	KindBool:   "bool",
	KindFactor: "factor",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalJSON encodes the kind as its lowercase name.
func (k Kind) MarshalJSON() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown column kind %d", int(k))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a kind from its lowercase name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for kind, kn := range kindNames {
		if kn == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown column kind %q", name)
}

// Column declares one field of a table. Levels is the category set and
// is only meaningful for KindFactor columns; its order is part of the
// schema and survives persistence.
type Column struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Levels []string `json:"levels,omitempty"`
}

// Schema is an ordered set of column declarations.
type Schema struct {
	Columns []Column `json:"columns"`
}

// NewSchema builds a schema from column declarations.
func NewSchema(cols ...Column) Schema {
	return Schema{Columns: cols}
}

// FloatCol declares a floating-point column.
func FloatCol(name string) Column { return Column{Name: name, Kind: KindFloat} }

// IntCol declares an integer column.
func IntCol(name string) Column { return Column{Name: name, Kind: KindInt} }

// StringCol declares a free-text column.
func StringCol(name string) Column { return Column{Name: name, Kind: KindString} }

// BoolCol declares a boolean column.
func BoolCol(name string) Column { return Column{Name: name, Kind: KindBool} }

// FactorCol declares a categorical column with its level set.
func FactorCol(name string, levels ...string) Column {
	return Column{Name: name, Kind: KindFactor, Levels: levels}
}

// Index returns the position of the named column, or -1 when absent.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column declaration.
func (s Schema) Column(name string) (Column, bool) {
	i := s.Index(name)
	if i < 0 {
		return Column{}, false
	}
	return s.Columns[i], true
}

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks that column names are non-empty and unique and that
// factor columns declare at least one level.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("schema has an unnamed column")
		}
		if seen[c.Name] {
			return fmt.Errorf("schema declares column %q twice", c.Name)
		}
		seen[c.Name] = true
		if c.Kind == KindFactor && len(c.Levels) == 0 {
			return fmt.Errorf("factor column %q declares no levels", c.Name)
		}
		if c.Kind != KindFactor && len(c.Levels) > 0 {
			return fmt.Errorf("non-factor column %q declares levels", c.Name)
		}
	}
	return nil
}

// checkValue verifies that v is storable under the column declaration.
// Missing is storable everywhere.
func (c Column) checkValue(v Value) error {
	if IsMissing(v) {
		return nil
	}
	switch c.Kind {
	case KindFloat:
		if _, ok := v.(Float); ok {
			return nil
		}
	case KindInt:
		if _, ok := v.(Int); ok {
			return nil
		}
	case KindString:
		if _, ok := v.(String); ok {
			return nil
		}
	case KindBool:
		if _, ok := v.(Bool); ok {
			return nil
		}
	case KindFactor:
		f, ok := v.(Factor)
		if !ok {
			break
		}
		if !slices.Contains(c.Levels, string(f)) {
			return fmt.Errorf("column %q: %q is not a declared level", c.Name, string(f))
		}
		return nil
	}
	return fmt.Errorf("column %q: %T is not a %s value", c.Name, v, c.Kind)
}
