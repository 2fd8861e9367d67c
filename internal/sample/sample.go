// Package sample handles the per-replicate measurement rows of the
// study: splitting calibration standards from field samples, averaging
// replicates into per-core means, and deriving the per-area metrics
// consumed by the analysis dataset.
package sample

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karstfen/soilcn/internal/table"
)

// RawSchema declares the columns of the raw measurement file: one row
// per analytical replicate. Site attributes (treatment, tsf, nfires)
// ride along on every row and are extracted per plot later.
func RawSchema() table.Schema {
	return table.NewSchema(
		table.StringCol("coreid"),
		table.IntCol("plotid"),
		table.StringCol("sticker"),
		table.StringCol("standard"),
		table.StringCol("treatment"),
		table.FloatCol("tsf"),
		table.IntCol("nfires"),
		table.StringCol("treeopen"),
		table.FloatCol("coredepth"),
		table.FloatCol("soildepth"),
		table.FloatCol("topsoildepth"),
		table.StringCol("colour"),
		table.FloatCol("weight"),
		table.FloatCol("bulkdensity"),
		table.FloatCol("totalcarbon"),
		table.FloatCol("totalnitrogen"),
		table.IntCol("seq"),
	)
}

// standardColumns is the StandardRecord projection of the raw schema.
var standardColumns = []string{"coreid", "sticker", "standard", "totalcarbon", "totalnitrogen"}

// StandardSchema declares the calibration-standard subset of the raw
// schema.
func StandardSchema() table.Schema {
	raw := RawSchema()
	cols := make([]table.Column, len(standardColumns))
	for i, name := range standardColumns {
		c, ok := raw.Column(name)
		if !ok {
			panic(fmt.Sprintf("standard column %q missing from raw schema", name))
		}
		cols[i] = c
	}
	return table.NewSchema(cols...)
}

// Split is the outcome of classifying raw rows. Unclassified counts
// rows whose standard-composition cell was absent; they belong to
// neither partition and are reported, never silently misrouted.
type Split struct {
	Samples      *table.Table
	Standards    *table.Table
	Unclassified int
}

// Classify partitions raw rows on the standard-composition field: a
// present-but-blank cell marks a field sample, non-blank text marks a
// calibration standard, and a missing cell leaves the row
// unclassified.
func Classify(raw *table.Table, logger *zap.Logger) (*Split, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	stdIdx := raw.Col("standard")
	if stdIdx < 0 {
		return nil, fmt.Errorf("raw table has no standard column")
	}

	stdSchema := StandardSchema()
	project := make([]int, len(standardColumns))
	for i, name := range standardColumns {
		j := raw.Col(name)
		if j < 0 {
			return nil, fmt.Errorf("raw table has no %s column", name)
		}
		project[i] = j
	}

	split := &Split{
		Samples:   table.New(raw.Schema),
		Standards: table.New(stdSchema),
	}
	for _, row := range raw.Rows {
		cell := row[stdIdx]
		if table.IsMissing(cell) {
			split.Unclassified++
			continue
		}
		text, ok := table.Text(cell)
		if !ok {
			split.Unclassified++
			continue
		}
		if strings.TrimSpace(text) == "" {
			if err := split.Samples.Append(row); err != nil {
				return nil, fmt.Errorf("classify sample row: %w", err)
			}
			continue
		}
		projected := make([]table.Value, len(project))
		for i, j := range project {
			projected[i] = row[j]
		}
		if err := split.Standards.Append(projected); err != nil {
			return nil, fmt.Errorf("classify standard row: %w", err)
		}
	}

	if split.Unclassified > 0 {
		logger.Warn("rows with absent standard field left unclassified",
			zap.Int("rows", split.Unclassified))
	}
	logger.Info("classified raw rows",
		zap.Int("samples", split.Samples.NumRows()),
		zap.Int("standards", split.Standards.NumRows()),
		zap.Int("unclassified", split.Unclassified))
	return split, nil
}
