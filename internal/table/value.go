package table

// Value is a sealed interface over the cell types a table can hold.
// Only Missing, Float, Int, String, Bool, and Factor implement it.
// Missing is a first-class value: undefined results propagate as
// Missing cells, never as errors or sentinel numbers.
type Value interface {
	tableValue()
}

// Missing marks an absent or undefined cell.
type Missing struct{}

func (Missing) tableValue() {}

// Float is a floating-point cell.
type Float float64

func (Float) tableValue() {}

// Int is an integer cell.
type Int int64

func (Int) tableValue() {}

// String is a free-text cell.
type String string

func (String) tableValue() {}

// Bool is a boolean cell.
type Bool bool

func (Bool) tableValue() {}

// Factor is a categorical cell; its value must be one of the column's
// declared levels.
type Factor string

func (Factor) tableValue() {}

// IsMissing reports whether v is the Missing value (or nil).
func IsMissing(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Missing)
	return ok
}

// Number extracts a float64 from a Float or Int cell.
func Number(v Value) (float64, bool) {
	switch x := v.(type) {
	case Float:
		return float64(x), true
	case Int:
		return float64(x), true
	}
	return 0, false
}

// Text extracts the string form of a String or Factor cell.
func Text(v Value) (string, bool) {
	switch x := v.(type) {
	case String:
		return string(x), true
	case Factor:
		return string(x), true
	}
	return "", false
}

// Boolean extracts a bool from a Bool cell.
func Boolean(v Value) (bool, bool) {
	if x, ok := v.(Bool); ok {
		return bool(x), true
	}
	return false, false
}
