// Package analysis assembles the modeling-ready dataset: per-core
// derived metrics joined with site attributes and the optional fire
// severity index, plus the empirical fire-count weights and the column
// summaries used for table inspection.
package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/karstfen/soilcn/internal/table"
)

// BuildDataset joins site attributes onto each core's derived metrics
// by plot id, and left-joins the per-plot severity index when one is
// supplied. Site columns already present on the core rows (plotid,
// treatment, tsf, nfires) are not duplicated. Cores whose plot has no
// site row keep missing site fields.
func BuildDataset(metrics, sites, severity *table.Table, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mPlot := metrics.Col("plotid")
	if mPlot < 0 {
		return nil, fmt.Errorf("metrics table has no plotid column")
	}
	sPlot := sites.Col("plotid")
	if sPlot < 0 {
		return nil, fmt.Errorf("sites table has no plotid column")
	}

	// site columns to attach: everything the core rows don't already carry
	var addCols []table.Column
	var addIdx []int
	for j, c := range sites.Schema.Columns {
		if metrics.Col(c.Name) >= 0 {
			continue
		}
		addCols = append(addCols, c)
		addIdx = append(addIdx, j)
	}

	siteByPlot := map[int64][]table.Value{}
	for _, row := range sites.Rows {
		if pid, ok := row[sPlot].(table.Int); ok {
			siteByPlot[int64(pid)] = row
		}
	}

	var sevByPlot map[int64]table.Value
	if severity != nil {
		vPlot := severity.Col("plotid")
		vSev := severity.Col("severity")
		if vPlot < 0 || vSev < 0 {
			return nil, fmt.Errorf("severity table lacks plotid or severity")
		}
		sevByPlot = map[int64]table.Value{}
		for _, row := range severity.Rows {
			if pid, ok := row[vPlot].(table.Int); ok {
				sevByPlot[int64(pid)] = row[vSev]
			}
		}
	}

	outCols := append([]table.Column{}, metrics.Schema.Columns...)
	outCols = append(outCols, addCols...)
	if severity != nil {
		outCols = append(outCols, table.FloatCol("severity"))
	}
	out := table.New(table.NewSchema(outCols...))

	orphans := 0
	for _, row := range metrics.Rows {
		outRow := make([]table.Value, 0, len(outCols))
		outRow = append(outRow, row...)

		var siteRow []table.Value
		if pid, ok := row[mPlot].(table.Int); ok {
			siteRow = siteByPlot[int64(pid)]
		}
		if siteRow == nil {
			orphans++
		}
		for _, j := range addIdx {
			if siteRow == nil {
				outRow = append(outRow, table.Missing{})
			} else {
				outRow = append(outRow, siteRow[j])
			}
		}

		if severity != nil {
			sev := table.Value(table.Missing{})
			if pid, ok := row[mPlot].(table.Int); ok {
				if v, found := sevByPlot[int64(pid)]; found {
					sev = v
				}
			}
			outRow = append(outRow, sev)
		}

		if err := out.Append(outRow); err != nil {
			return nil, fmt.Errorf("dataset row: %w", err)
		}
	}
	if orphans > 0 {
		logger.Warn("cores without a site row keep missing site fields",
			zap.Int("cores", orphans))
	}
	logger.Info("built analysis dataset",
		zap.Int("rows", out.NumRows()),
		zap.Int("columns", out.NumCols()),
		zap.Bool("severity", severity != nil))
	return out, nil
}
