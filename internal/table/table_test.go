package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soilSchema() Schema {
	return NewSchema(
		IntCol("plotid"),
		StringCol("treatment"),
		FactorCol("harvest", "unharvested", "harvested"),
		FloatCol("totalcarbon"),
		BoolCol("burnt"),
	)
}

func TestSchemaIndexAndColumn(t *testing.T) {
	s := soilSchema()

	assert.Equal(t, 0, s.Index("plotid"))
	assert.Equal(t, 3, s.Index("totalcarbon"))
	assert.Equal(t, -1, s.Index("no_such_column"))

	col, ok := s.Column("harvest")
	require.True(t, ok)
	assert.Equal(t, KindFactor, col.Kind)
	assert.Equal(t, []string{"unharvested", "harvested"}, col.Levels)
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, soilSchema().Validate())

	dup := NewSchema(IntCol("plotid"), FloatCol("plotid"))
	require.Error(t, dup.Validate())

	bare := NewSchema(Column{Name: "harvest", Kind: KindFactor})
	require.Error(t, bare.Validate())

	leveledString := NewSchema(Column{Name: "treatment", Kind: KindString, Levels: []string{"LR"}})
	require.Error(t, leveledString.Validate())
}

func TestSchemaJSONKeepsFactorLevels(t *testing.T) {
	s := soilSchema()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Schema
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)

	col, ok := back.Column("harvest")
	require.True(t, ok)
	assert.Equal(t, []string{"unharvested", "harvested"}, col.Levels)
}

func TestKindUnmarshalRejectsUnknownName(t *testing.T) {
	var k Kind
	err := json.Unmarshal([]byte(`"decimal"`), &k)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal")
}

func TestRowRoundTrip(t *testing.T) {
	s := soilSchema()
	row := []Value{Int(14), String("LR"), Factor("harvested"), Float(2.625), Bool(true)}

	data, err := s.EncodeRow(row)
	require.NoError(t, err)

	back, err := s.DecodeRow(data)
	require.NoError(t, err)
	assert.Equal(t, row, back)
}

func TestRowRoundTripMissing(t *testing.T) {
	s := soilSchema()
	row := []Value{Int(3), Missing{}, Missing{}, Missing{}, Missing{}}

	data, err := s.EncodeRow(row)
	require.NoError(t, err)
	assert.Equal(t, `[3,null,null,null,null]`, string(data))

	back, err := s.DecodeRow(data)
	require.NoError(t, err)
	assert.Equal(t, row, back)
}

func TestDecodeRowErrors(t *testing.T) {
	s := soilSchema()

	t.Run("arity mismatch", func(t *testing.T) {
		_, err := s.DecodeRow([]byte(`[1,"LR"]`))
		require.Error(t, err)
	})

	t.Run("float in int column", func(t *testing.T) {
		_, err := s.DecodeRow([]byte(`[1.5,"LR","harvested",2.0,true]`))
		require.Error(t, err)
	})

	t.Run("undeclared factor level", func(t *testing.T) {
		_, err := s.DecodeRow([]byte(`[1,"LR","coppiced",2.0,true]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "coppiced")
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := s.DecodeRow([]byte(`[1,"LR","harvested","high",true]`))
		require.Error(t, err)
	})
}

func TestAppendChecksRowAgainstSchema(t *testing.T) {
	tab := New(soilSchema())

	require.NoError(t, tab.Append([]Value{Int(1), String("UN"), Factor("unharvested"), Float(1.1), Bool(false)}))
	require.NoError(t, tab.Append([]Value{Int(2), Missing{}, Missing{}, Missing{}, Missing{}}))
	assert.Equal(t, 2, tab.NumRows())

	require.Error(t, tab.Append([]Value{Int(3)}))
	require.Error(t, tab.Append([]Value{Float(3), String("UN"), Factor("unharvested"), Float(1.1), Bool(false)}))
	require.Error(t, tab.Append([]Value{Int(3), String("UN"), Factor("logged"), Float(1.1), Bool(false)}))
	assert.Equal(t, 2, tab.NumRows())
}

func TestValueHelpers(t *testing.T) {
	assert.True(t, IsMissing(Missing{}))
	assert.True(t, IsMissing(nil))
	assert.False(t, IsMissing(Float(0)))

	n, ok := Number(Float(2.5))
	require.True(t, ok)
	assert.Equal(t, 2.5, n)

	n, ok = Number(Int(4))
	require.True(t, ok)
	assert.Equal(t, 4.0, n)

	_, ok = Number(String("4"))
	assert.False(t, ok)

	txt, ok := Text(Factor("harvested"))
	require.True(t, ok)
	assert.Equal(t, "harvested", txt)

	_, ok = Text(Int(4))
	assert.False(t, ok)

	b, ok := Boolean(Bool(true))
	require.True(t, ok)
	assert.True(t, b)

	_, ok = Boolean(Missing{})
	assert.False(t, ok)
}
