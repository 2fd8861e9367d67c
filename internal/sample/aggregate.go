package sample

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/karstfen/soilcn/internal/table"
)

// Columns that exist per replicate, not per core. They are dropped by
// aggregation rather than carried or averaged.
var replicateOnlyColumns = map[string]bool{
	"sticker":  true,
	"standard": true,
	"seq":      true,
}

// Columns averaged across a core's replicates.
var averagedColumns = map[string]bool{
	"totalcarbon":   true,
	"totalnitrogen": true,
}

// AggregateOptions controls how non-averaged fields are taken from a
// core's replicate rows.
type AggregateOptions struct {
	// Lenient silently copies non-averaged fields from the first
	// replicate. The default (strict) fails when replicates of one
	// core disagree on a field that should be constant.
	Lenient bool
}

// AggregateCores collapses field-sample rows into one row per core id:
// carbon and nitrogen become arithmetic means over the replicates, a
// replicates count is appended, and the remaining fields are carried
// from the replicate rows (validated constant unless lenient). A
// missing measurement in any replicate makes the mean missing.
func AggregateCores(samples *table.Table, opts AggregateOptions, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	coreIdx := samples.Col("coreid")
	if coreIdx < 0 {
		return nil, fmt.Errorf("samples table has no coreid column")
	}

	var outCols []table.Column
	var srcIdx []int
	for j, c := range samples.Schema.Columns {
		if replicateOnlyColumns[c.Name] {
			continue
		}
		outCols = append(outCols, c)
		srcIdx = append(srcIdx, j)
	}
	outCols = append(outCols, table.IntCol("replicates"))
	out := table.New(table.NewSchema(outCols...))

	var order []string
	groups := map[string][]int{}
	skipped := 0
	for i, row := range samples.Rows {
		id, ok := table.Text(row[coreIdx])
		if !ok {
			skipped++
			continue
		}
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}
	if skipped > 0 {
		logger.Warn("sample rows without a core id excluded from aggregation",
			zap.Int("rows", skipped))
	}

	for _, id := range order {
		members := groups[id]
		if len(members) == 0 {
			return nil, &EmptyGroupError{CoreID: id}
		}
		first := samples.Rows[members[0]]

		outRow := make([]table.Value, 0, len(outCols))
		for k, j := range srcIdx {
			name := outCols[k].Name
			if averagedColumns[name] {
				outRow = append(outRow, meanOf(samples.Rows, members, j))
				continue
			}
			if !opts.Lenient {
				for _, m := range members[1:] {
					if samples.Rows[m][j] != first[j] {
						return nil, &InconsistentReplicateError{CoreID: id, Column: name}
					}
				}
			}
			outRow = append(outRow, first[j])
		}
		outRow = append(outRow, table.Int(int64(len(members))))
		if err := out.Append(outRow); err != nil {
			return nil, fmt.Errorf("aggregate core %q: %w", id, err)
		}
	}

	logger.Info("aggregated replicates into cores",
		zap.Int("replicates", samples.NumRows()),
		zap.Int("cores", out.NumRows()))
	return out, nil
}

// meanOf averages a column over the member rows; any missing value in
// the group propagates to a missing mean.
func meanOf(rows [][]table.Value, members []int, col int) table.Value {
	sum := 0.0
	for _, m := range members {
		x, ok := table.Number(rows[m][col])
		if !ok {
			return table.Missing{}
		}
		sum += x
	}
	return table.Float(sum / float64(len(members)))
}
