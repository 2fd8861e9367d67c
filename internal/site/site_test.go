package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karstfen/soilcn/internal/table"
)

func sampleTable(t *testing.T, rows ...[]table.Value) *table.Table {
	t.Helper()
	tab := table.New(table.NewSchema(
		table.IntCol("plotid"),
		table.StringCol("treatment"),
		table.FloatCol("tsf"),
		table.IntCol("nfires"),
	))
	for _, row := range rows {
		require.NoError(t, tab.Append(row))
	}
	return tab
}

func topoTable(t *testing.T, rows ...[]table.Value) *table.Table {
	t.Helper()
	tab := table.New(TopoSchema())
	for _, row := range rows {
		require.NoError(t, tab.Append(row))
	}
	return tab
}

func TestBuildOneRowPerPlot(t *testing.T) {
	samples := sampleTable(t,
		[]table.Value{table.Int(1), table.String("LR"), table.Float(10), table.Int(2)},
		[]table.Value{table.Int(1), table.String("LR"), table.Float(10), table.Int(2)},
		[]table.Value{table.Int(2), table.String("UN"), table.Float(40), table.Int(0)},
	)

	sites, err := Build(samples, nil, DefaultCodeMaps(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, sites.NumRows())

	first := sites.Rows[0]
	assert.Equal(t, table.Int(1), first[sites.Col("plotid")])
	assert.Equal(t, table.Factor("harvested"), first[sites.Col("harvest")])
	assert.Equal(t, table.Factor("regular"), first[sites.Col("firetreatment")])

	second := sites.Rows[1]
	assert.Equal(t, table.Factor("unharvested"), second[sites.Col("harvest")])
	assert.Equal(t, table.Factor("none"), second[sites.Col("firetreatment")])

	harvest, ok := sites.Schema.Column("harvest")
	require.True(t, ok)
	assert.Equal(t, []string{"unharvested", "harvested"}, harvest.Levels)
}

func TestBuildConflictingSiteValues(t *testing.T) {
	samples := sampleTable(t,
		[]table.Value{table.Int(3), table.String("LR"), table.Float(10), table.Int(2)},
		[]table.Value{table.Int(3), table.String("UN"), table.Float(10), table.Int(2)},
		[]table.Value{table.Int(7), table.String("LR"), table.Float(10), table.Int(2)},
		[]table.Value{table.Int(7), table.String("LR"), table.Float(12), table.Int(2)},
		[]table.Value{table.Int(5), table.String("LF"), table.Float(5), table.Int(4)},
	)

	_, err := Build(samples, nil, DefaultCodeMaps(), nil)
	require.Error(t, err)
	require.True(t, IsInconsistentSiteDataError(err))

	var serr *InconsistentSiteDataError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []int64{3, 7}, serr.PlotIDs, "every offending plot is enumerated")
	assert.Contains(t, err.Error(), "3, 7")
}

func TestBuildUnknownCategoryCode(t *testing.T) {
	samples := sampleTable(t,
		[]table.Value{table.Int(1), table.String("XX"), table.Float(10), table.Int(2)},
	)
	_, err := Build(samples, nil, DefaultCodeMaps(), nil)
	require.Error(t, err)
	require.True(t, IsUnknownCategoryCodeError(err))

	short := sampleTable(t,
		[]table.Value{table.Int(1), table.String("U"), table.Float(10), table.Int(2)},
	)
	_, err = Build(short, nil, DefaultCodeMaps(), nil)
	require.True(t, IsUnknownCategoryCodeError(err))

	missing := sampleTable(t,
		[]table.Value{table.Int(1), table.Missing{}, table.Float(10), table.Int(2)},
	)
	sites, err := Build(missing, nil, DefaultCodeMaps(), nil)
	require.NoError(t, err, "missing treatment is missing categories, not an error")
	assert.True(t, table.IsMissing(sites.Rows[0][sites.Col("harvest")]))
	assert.True(t, table.IsMissing(sites.Rows[0][sites.Col("firetreatment")]))
}

func TestBuildTopoLeftJoin(t *testing.T) {
	samples := sampleTable(t,
		[]table.Value{table.Int(1), table.String("LR"), table.Float(10), table.Int(2)},
		[]table.Value{table.Int(2), table.String("UN"), table.Float(40), table.Int(0)},
	)
	topo := topoTable(t,
		[]table.Value{table.Int(1), table.Float(350000), table.Float(6200000), table.Float(90), table.Float(4.5), table.Float(220), table.Float(7.1), table.Float(5300)},
		[]table.Value{table.Int(1), table.Float(0), table.Float(0), table.Float(0), table.Float(0), table.Float(0), table.Float(0), table.Float(0)},
	)

	sites, err := Build(samples, topo, DefaultCodeMaps(), nil)
	require.NoError(t, err)

	matched := sites.Rows[0]
	assert.Equal(t, table.Float(220), matched[sites.Col("elevation")], "first topo row wins for a duplicated plot")
	n, ok := table.Number(matched[sites.Col("northness")])
	require.True(t, ok)
	assert.InDelta(t, 1.0, n, 1e-12, "aspect 90 is maximal northness")

	unmatched := sites.Rows[1]
	assert.True(t, table.IsMissing(unmatched[sites.Col("aspect")]), "plots absent from topo keep missing fields")
	assert.True(t, table.IsMissing(unmatched[sites.Col("northness")]))
}

func TestNorthness(t *testing.T) {
	cases := []struct {
		aspect float64
		want   float64
	}{
		{0, 0},
		{90, 1},
		{180, 0},
		{270, -1},
	}
	for _, c := range cases {
		got, ok := table.Number(northness(table.Float(c.aspect)))
		require.True(t, ok)
		assert.InDelta(t, c.want, got, 1e-12, "aspect %v", c.aspect)
	}
	assert.True(t, table.IsMissing(northness(table.Missing{})))
}
