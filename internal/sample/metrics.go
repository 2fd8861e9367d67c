package sample

import (
	"fmt"

	"github.com/karstfen/soilcn/internal/table"
)

// DeriveMetrics extends per-core means with mass-per-area metrics:
// carbonperarea = coredepth × bulkdensity × totalcarbon, the nitrogen
// equivalent, and the carbon/nitrogen ratio. Any missing input makes
// the derived value missing, and a zero nitrogenperarea makes the
// ratio missing rather than an error or an infinity.
func DeriveMetrics(means *table.Table) (*table.Table, error) {
	need := map[string]int{"coredepth": -1, "bulkdensity": -1, "totalcarbon": -1, "totalnitrogen": -1}
	for name := range need {
		j := means.Col(name)
		if j < 0 {
			return nil, fmt.Errorf("means table has no %s column", name)
		}
		need[name] = j
	}

	cols := append([]table.Column{}, means.Schema.Columns...)
	cols = append(cols,
		table.FloatCol("carbonperarea"),
		table.FloatCol("nitrogenperarea"),
		table.FloatCol("cnratio"),
	)
	out := table.New(table.NewSchema(cols...))

	for _, row := range means.Rows {
		depth, okDepth := table.Number(row[need["coredepth"]])
		density, okDensity := table.Number(row[need["bulkdensity"]])
		carbon, okCarbon := table.Number(row[need["totalcarbon"]])
		nitrogen, okNitrogen := table.Number(row[need["totalnitrogen"]])

		carbonArea := table.Value(table.Missing{})
		if okDepth && okDensity && okCarbon {
			carbonArea = table.Float(depth * density * carbon)
		}
		nitrogenArea := table.Value(table.Missing{})
		if okDepth && okDensity && okNitrogen {
			nitrogenArea = table.Float(depth * density * nitrogen)
		}
		ratio := table.Value(table.Missing{})
		if ca, ok1 := table.Number(carbonArea); ok1 {
			if na, ok2 := table.Number(nitrogenArea); ok2 && na != 0 {
				ratio = table.Float(ca / na)
			}
		}

		outRow := make([]table.Value, 0, len(cols))
		outRow = append(outRow, row...)
		outRow = append(outRow, carbonArea, nitrogenArea, ratio)
		if err := out.Append(outRow); err != nil {
			return nil, fmt.Errorf("derive metrics: %w", err)
		}
	}
	return out, nil
}
