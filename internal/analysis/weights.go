package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/karstfen/soilcn/internal/table"
)

// AttachFireCountWeights appends a weight column proportional to how
// common each row's fire count is, normalized so the weights average
// one. Rows sharing an nfires value share a weight; rows with a
// missing fire count get a missing weight and do not enter the
// normalization.
func AttachFireCountWeights(dataset *table.Table, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dataset.Col("weight") >= 0 {
		return nil, fmt.Errorf("dataset already has a weight column")
	}
	nf := dataset.Col("nfires")
	if nf < 0 {
		return nil, fmt.Errorf("dataset has no nfires column")
	}

	counts := map[int64]int{}
	total := 0
	for _, row := range dataset.Rows {
		if n, ok := row[nf].(table.Int); ok {
			counts[int64(n)]++
			total++
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("no rows with a fire count to weight")
	}

	// mean of the per-row frequency, so dividing by it centers the
	// weights on one
	sumProp := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		sumProp += p * float64(c)
	}
	meanProp := sumProp / float64(total)

	outCols := append([]table.Column{}, dataset.Schema.Columns...)
	outCols = append(outCols, table.FloatCol("weight"))
	out := table.New(table.NewSchema(outCols...))

	missing := 0
	for _, row := range dataset.Rows {
		w := table.Value(table.Missing{})
		if n, ok := row[nf].(table.Int); ok {
			p := float64(counts[int64(n)]) / float64(total)
			w = table.Float(p / meanProp)
		} else {
			missing++
		}
		outRow := make([]table.Value, 0, len(outCols))
		outRow = append(outRow, row...)
		outRow = append(outRow, w)
		if err := out.Append(outRow); err != nil {
			return nil, fmt.Errorf("weight row: %w", err)
		}
	}
	if missing > 0 {
		logger.Warn("rows without a fire count carry a missing weight",
			zap.Int("rows", missing))
	}
	logger.Info("attached fire-count weights",
		zap.Int("rows", out.NumRows()),
		zap.Int("distinct_counts", len(counts)))
	return out, nil
}
