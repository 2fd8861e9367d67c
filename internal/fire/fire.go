// Package fire turns yearly per-plot burn-percentage records into the
// fire-exposure tables: a per-year table with a thresholded burnt flag,
// and a per-plot severity index summing annual burn proportions.
package fire

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/karstfen/soilcn/internal/table"
)

// DefaultBurnThreshold is the burn percentage at and above which a
// plot-year counts as burnt.
const DefaultBurnThreshold = 20.0

// HistorySchema declares the columns of the fire-history source file:
// one row per plot label and year.
func HistorySchema() table.Schema {
	return table.NewSchema(
		table.StringCol("plot"),
		table.IntCol("year"),
		table.FloatCol("burnpercent"),
	)
}

// PlotIDFromLabel extracts the numeric plot id from the trailing digits
// of a composite label ("Plot_014" yields 14).
func PlotIDFromLabel(label string) (int64, error) {
	s := strings.TrimSpace(label)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0, &UnparsablePlotIdError{Label: label}
	}
	id, err := strconv.ParseInt(s[i:], 10, 64)
	if err != nil {
		return 0, &UnparsablePlotIdError{Label: label}
	}
	return id, nil
}

// BuildYearTable resolves plot labels to numeric ids and derives the
// burnt flag per year: burnpercent at or above the threshold. A missing
// burn percentage gives a missing flag; a label without trailing digits
// is fatal.
func BuildYearTable(raw *table.Table, threshold float64, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := map[string]int{}
	for _, name := range []string{"plot", "year", "burnpercent"} {
		j := raw.Col(name)
		if j < 0 {
			return nil, fmt.Errorf("fire history table has no %s column", name)
		}
		idx[name] = j
	}

	out := table.New(table.NewSchema(
		table.IntCol("plotid"),
		table.IntCol("year"),
		table.FloatCol("burnpercent"),
		table.BoolCol("burnt"),
	))
	for _, row := range raw.Rows {
		label, _ := table.Text(row[idx["plot"]])
		id, err := PlotIDFromLabel(label)
		if err != nil {
			return nil, err
		}

		bp := row[idx["burnpercent"]]
		burnt := table.Value(table.Missing{})
		if x, ok := table.Number(bp); ok {
			burnt = table.Bool(x >= threshold)
		}
		if err := out.Append([]table.Value{table.Int(id), row[idx["year"]], bp, burnt}); err != nil {
			return nil, fmt.Errorf("fire year row for plot %d: %w", id, err)
		}
	}
	logger.Info("built fire year table",
		zap.Int("rows", out.NumRows()),
		zap.Float64("threshold", threshold))
	return out, nil
}

// SeverityIndex sums burnpercent/100 over each plot's year rows. Years
// with no record contribute nothing, and a plot with no rows at all has
// no severity row, so sparse histories are never read as burn-free. A
// missing burn percentage within a plot makes its severity missing.
func SeverityIndex(years *table.Table, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pidIdx := years.Col("plotid")
	bpIdx := years.Col("burnpercent")
	if pidIdx < 0 || bpIdx < 0 {
		return nil, fmt.Errorf("fire year table lacks plotid or burnpercent")
	}

	var order []int64
	sums := map[int64]float64{}
	undefined := map[int64]bool{}
	for _, row := range years.Rows {
		pid, ok := row[pidIdx].(table.Int)
		if !ok {
			continue
		}
		id := int64(pid)
		if _, seen := sums[id]; !seen && !undefined[id] {
			order = append(order, id)
		}
		x, ok := table.Number(row[bpIdx])
		if !ok {
			undefined[id] = true
			delete(sums, id)
			continue
		}
		if !undefined[id] {
			sums[id] += x / 100
		}
	}

	out := table.New(table.NewSchema(table.IntCol("plotid"), table.FloatCol("severity")))
	for _, id := range order {
		sev := table.Value(table.Missing{})
		if !undefined[id] {
			sev = table.Float(sums[id])
		}
		if err := out.Append([]table.Value{table.Int(id), sev}); err != nil {
			return nil, fmt.Errorf("severity row for plot %d: %w", id, err)
		}
	}
	logger.Info("built fire severity index", zap.Int("plots", out.NumRows()))
	return out, nil
}
