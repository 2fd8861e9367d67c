package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/karstfen/soilcn/internal/table"
)

// maxSummaryLevels caps how many category tallies a summary line shows.
const maxSummaryLevels = 8

// LevelCount is one category tally in a text column summary.
type LevelCount struct {
	Label string
	Count int
}

// ColumnSummary describes one column: non-missing count, missing count,
// and either numeric moments or category tallies depending on kind.
type ColumnSummary struct {
	Name    string
	Kind    table.Kind
	N       int
	Missing int

	Mean float64
	SD   float64
	Min  float64
	Max  float64

	Levels []LevelCount
}

// Summarize computes a per-column summary of the table. Numeric columns
// get mean, sample standard deviation, min and max over non-missing
// cells; string, bool and factor columns get label tallies sorted by
// count descending then label.
func Summarize(tab *table.Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, tab.NumCols())
	for j, c := range tab.Schema.Columns {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind}
		tally := map[string]int{}
		var mean, m2 float64
		min := math.Inf(1)
		max := math.Inf(-1)

		for _, row := range tab.Rows {
			v := row[j]
			if table.IsMissing(v) {
				s.Missing++
				continue
			}
			s.N++
			switch c.Kind {
			case table.KindFloat, table.KindInt:
				x, _ := table.Number(v)
				// Welford running moments
				delta := x - mean
				mean += delta / float64(s.N)
				m2 += delta * (x - mean)
				if x < min {
					min = x
				}
				if x > max {
					max = x
				}
			case table.KindBool:
				b, _ := table.Boolean(v)
				tally[fmt.Sprintf("%t", b)]++
			default:
				label, _ := table.Text(v)
				if label == "" {
					label = "(blank)"
				}
				tally[label]++
			}
		}

		switch c.Kind {
		case table.KindFloat, table.KindInt:
			if s.N > 0 {
				s.Mean = mean
				s.Min = min
				s.Max = max
			}
			if s.N > 1 {
				s.SD = math.Sqrt(m2 / float64(s.N-1))
			}
		default:
			for label, count := range tally {
				s.Levels = append(s.Levels, LevelCount{Label: label, Count: count})
			}
			sort.Slice(s.Levels, func(a, b int) bool {
				if s.Levels[a].Count != s.Levels[b].Count {
					return s.Levels[a].Count > s.Levels[b].Count
				}
				return s.Levels[a].Label < s.Levels[b].Label
			})
		}
		out = append(out, s)
	}
	return out
}

func (s ColumnSummary) detail() string {
	if s.N == 0 {
		return "all missing"
	}
	switch s.Kind {
	case table.KindFloat, table.KindInt:
		if s.N == 1 {
			return fmt.Sprintf("mean %.3f", s.Mean)
		}
		return fmt.Sprintf("mean %.3f  sd %.3f  min %.3f  max %.3f",
			s.Mean, s.SD, s.Min, s.Max)
	default:
		shown := s.Levels
		extra := 0
		if len(shown) > maxSummaryLevels {
			extra = len(shown) - maxSummaryLevels
			shown = shown[:maxSummaryLevels]
		}
		parts := make([]string, 0, len(shown)+1)
		for _, lc := range shown {
			parts = append(parts, fmt.Sprintf("%s %d", lc.Label, lc.Count))
		}
		if extra > 0 {
			parts = append(parts, fmt.Sprintf("(+%d more)", extra))
		}
		return strings.Join(parts, ", ")
	}
}

// RenderSummary writes a fixed-width text summary of the table, one
// line per column. Output is deterministic for a given table.
func RenderSummary(w io.Writer, key string, tab *table.Table) error {
	if _, err := fmt.Fprintf(w, "table %s: %d rows, %d columns\n\n",
		key, tab.NumRows(), tab.NumCols()); err != nil {
		return err
	}
	nameW := len("column")
	for _, c := range tab.Schema.Columns {
		if len(c.Name) > nameW {
			nameW = len(c.Name)
		}
	}
	if _, err := fmt.Fprintf(w, "%-*s  %-6s  %4s  %4s  %s\n",
		nameW, "column", "kind", "n", "miss", "summary"); err != nil {
		return err
	}
	for _, s := range Summarize(tab) {
		if _, err := fmt.Fprintf(w, "%-*s  %-6s  %4d  %4d  %s\n",
			nameW, s.Name, s.Kind, s.N, s.Missing, s.detail()); err != nil {
			return err
		}
	}
	return nil
}
