package analysis

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karstfen/soilcn/internal/table"
)

func metricsTable(t *testing.T) *table.Table {
	t.Helper()
	tab := table.New(table.NewSchema(
		table.StringCol("coreid"),
		table.IntCol("plotid"),
		table.FloatCol("carbonperarea"),
	))
	rows := [][]table.Value{
		{table.String("P1C1"), table.Int(1), table.Float(24)},
		{table.String("P1C2"), table.Int(1), table.Float(30)},
		{table.String("P2C1"), table.Int(2), table.Float(18)},
		{table.String("P9C1"), table.Int(9), table.Float(12)},
	}
	for _, r := range rows {
		require.NoError(t, tab.Append(r))
	}
	return tab
}

func sitesTable(t *testing.T) *table.Table {
	t.Helper()
	tab := table.New(table.NewSchema(
		table.IntCol("plotid"),
		table.StringCol("treatment"),
		table.FloatCol("tsf"),
		table.IntCol("nfires"),
		table.FactorCol("harvest", "unharvested", "harvested"),
		table.FloatCol("northness"),
	))
	rows := [][]table.Value{
		{table.Int(1), table.String("LR"), table.Float(10), table.Int(2), table.Factor("harvested"), table.Float(1)},
		{table.Int(2), table.String("UN"), table.Float(4), table.Int(0), table.Factor("unharvested"), table.Float(0.5)},
	}
	for _, r := range rows {
		require.NoError(t, tab.Append(r))
	}
	return tab
}

func severityTable(t *testing.T) *table.Table {
	t.Helper()
	tab := table.New(table.NewSchema(
		table.IntCol("plotid"),
		table.FloatCol("severity"),
	))
	rows := [][]table.Value{
		{table.Int(1), table.Float(0.7)},
		{table.Int(2), table.Float(1.0)},
	}
	for _, r := range rows {
		require.NoError(t, tab.Append(r))
	}
	return tab
}

func TestBuildDatasetJoinsSitesAndSeverity(t *testing.T) {
	ds, err := BuildDataset(metricsTable(t), sitesTable(t), severityTable(t), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, ds.NumRows())
	assert.Equal(t, []string{
		"coreid", "plotid", "carbonperarea",
		"treatment", "tsf", "nfires", "harvest", "northness", "severity",
	}, ds.Schema.Names())

	harvest := ds.Col("harvest")
	sev := ds.Col("severity")
	treat := ds.Col("treatment")

	// both cores on plot 1 share its site attributes
	assert.Equal(t, table.Factor("harvested"), ds.Rows[0][harvest])
	assert.Equal(t, table.Factor("harvested"), ds.Rows[1][harvest])
	assert.Equal(t, table.String("LR"), ds.Rows[0][treat])
	assert.Equal(t, table.Float(0.7), ds.Rows[0][sev])
	assert.Equal(t, table.Float(1.0), ds.Rows[2][sev])
}

func TestBuildDatasetUnmatchedPlotStaysMissing(t *testing.T) {
	ds, err := BuildDataset(metricsTable(t), sitesTable(t), severityTable(t), nil)
	require.NoError(t, err)

	// P9C1 sits on a plot with no site or severity row
	last := ds.Rows[3]
	assert.True(t, table.IsMissing(last[ds.Col("harvest")]))
	assert.True(t, table.IsMissing(last[ds.Col("northness")]))
	assert.True(t, table.IsMissing(last[ds.Col("severity")]))
	// its own metrics survive the join untouched
	assert.Equal(t, table.Float(12), last[ds.Col("carbonperarea")])
}

func TestBuildDatasetWithoutSeverity(t *testing.T) {
	ds, err := BuildDataset(metricsTable(t), sitesTable(t), nil, nil)
	require.NoError(t, err)
	assert.Less(t, ds.Col("severity"), 0)
	assert.Equal(t, 4, ds.NumRows())
}

func weightInput(t *testing.T, nfires []table.Value) *table.Table {
	t.Helper()
	tab := table.New(table.NewSchema(
		table.StringCol("coreid"),
		table.IntCol("nfires"),
	))
	for i, n := range nfires {
		require.NoError(t, tab.Append([]table.Value{
			table.String(string(rune('a' + i))), n,
		}))
	}
	return tab
}

func TestAttachFireCountWeights(t *testing.T) {
	in := weightInput(t, []table.Value{table.Int(0), table.Int(0), table.Int(1)})
	out, err := AttachFireCountWeights(in, nil)
	require.NoError(t, err)

	w := out.Col("weight")
	require.GreaterOrEqual(t, w, 0)

	// nfires=0 appears in 2 of 3 rows, nfires=1 in 1 of 3; dividing by
	// the mean per-row frequency centers the weights on one
	want := []float64{1.2, 1.2, 0.6}
	sum := 0.0
	for i, row := range out.Rows {
		x, ok := table.Number(row[w])
		require.True(t, ok)
		assert.InDelta(t, want[i], x, 1e-12)
		sum += x
	}
	assert.InDelta(t, 1.0, sum/3, 1e-12)
}

func TestAttachFireCountWeightsMissingCount(t *testing.T) {
	in := weightInput(t, []table.Value{
		table.Int(0), table.Int(0), table.Int(1), table.Missing{},
	})
	out, err := AttachFireCountWeights(in, nil)
	require.NoError(t, err)

	w := out.Col("weight")
	// the missing row neither gets a weight nor shifts the others
	assert.True(t, table.IsMissing(out.Rows[3][w]))
	x, _ := table.Number(out.Rows[0][w])
	assert.InDelta(t, 1.2, x, 1e-12)
}

func TestAttachFireCountWeightsRejectsBadInput(t *testing.T) {
	withWeight := table.New(table.NewSchema(
		table.IntCol("nfires"),
		table.FloatCol("weight"),
	))
	_, err := AttachFireCountWeights(withWeight, nil)
	assert.ErrorContains(t, err, "weight")

	allMissing := weightInput(t, []table.Value{table.Missing{}, table.Missing{}})
	_, err = AttachFireCountWeights(allMissing, nil)
	assert.ErrorContains(t, err, "no rows")
}

func summaryTable(t *testing.T) *table.Table {
	t.Helper()
	tab := table.New(table.NewSchema(
		table.IntCol("plotid"),
		table.FloatCol("totalcarbon"),
		table.FactorCol("harvest", "unharvested", "harvested"),
		table.BoolCol("burnt"),
		table.StringCol("colour"),
	))
	rows := [][]table.Value{
		{table.Int(1), table.Float(2), table.Factor("harvested"), table.Bool(true), table.String("dark brown")},
		{table.Int(2), table.Float(3), table.Factor("harvested"), table.Bool(true), table.String("brown")},
		{table.Int(3), table.Float(4), table.Factor("unharvested"), table.Bool(false), table.Missing{}},
		{table.Missing{}, table.Missing{}, table.Missing{}, table.Missing{}, table.String("dark brown")},
	}
	for _, r := range rows {
		require.NoError(t, tab.Append(r))
	}
	return tab
}

func TestSummarize(t *testing.T) {
	sums := Summarize(summaryTable(t))
	require.Len(t, sums, 5)

	plotid := sums[0]
	assert.Equal(t, 3, plotid.N)
	assert.Equal(t, 1, plotid.Missing)
	assert.InDelta(t, 2.0, plotid.Mean, 1e-12)
	assert.InDelta(t, 1.0, plotid.SD, 1e-12)
	assert.InDelta(t, 1.0, plotid.Min, 1e-12)
	assert.InDelta(t, 3.0, plotid.Max, 1e-12)

	harvest := sums[2]
	require.Len(t, harvest.Levels, 2)
	assert.Equal(t, LevelCount{Label: "harvested", Count: 2}, harvest.Levels[0])
	assert.Equal(t, LevelCount{Label: "unharvested", Count: 1}, harvest.Levels[1])
}

func TestRenderSummaryGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, "dataset", summaryTable(t)))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dataset_summary", buf.Bytes())
}
