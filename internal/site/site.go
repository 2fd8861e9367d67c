// Package site builds the one-row-per-plot site table: distinct
// site-level values extracted from field samples, harvest and
// fire-treatment categories decoded from the two-character treatment
// code, and topographic attributes joined from a secondary source.
package site

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/karstfen/soilcn/internal/table"
)

// topoFields are the topographic columns joined onto each site row.
var topoFields = []string{"easting", "northing", "aspect", "slope", "elevation", "wetness", "solar"}

// TopoSchema declares the columns of the topographic source table.
func TopoSchema() table.Schema {
	cols := []table.Column{table.IntCol("plotid")}
	for _, f := range topoFields {
		cols = append(cols, table.FloatCol(f))
	}
	return table.NewSchema(cols...)
}

// CodeLabel pairs a single-character code with its category label.
type CodeLabel struct {
	Code  byte
	Label string
}

// CodeMaps are the fixed lookup tables for decoding a treatment code:
// position one is the harvest code, position two the fire-treatment
// code. Label order defines the factor level order of the site table.
type CodeMaps struct {
	Harvest       []CodeLabel
	FireTreatment []CodeLabel
}

// DefaultCodeMaps returns the study's treatment-code alphabet.
func DefaultCodeMaps() CodeMaps {
	return CodeMaps{
		Harvest: []CodeLabel{
			{'U', "unharvested"},
			{'L', "harvested"},
		},
		FireTreatment: []CodeLabel{
			{'N', "none"},
			{'R', "regular"},
			{'F', "frequent"},
		},
	}
}

func labelFor(m []CodeLabel, code byte) (string, bool) {
	for _, cl := range m {
		if cl.Code == code {
			return cl.Label, true
		}
	}
	return "", false
}

func levels(m []CodeLabel) []string {
	out := make([]string, len(m))
	for i, cl := range m {
		out[i] = cl.Label
	}
	return out
}

// Schema returns the site-table schema implied by the code maps.
func Schema(maps CodeMaps) table.Schema {
	cols := []table.Column{
		table.IntCol("plotid"),
		table.StringCol("treatment"),
		table.FloatCol("tsf"),
		table.IntCol("nfires"),
		table.FactorCol("harvest", levels(maps.Harvest)...),
		table.FactorCol("firetreatment", levels(maps.FireTreatment)...),
	}
	for _, f := range topoFields {
		cols = append(cols, table.FloatCol(f))
	}
	cols = append(cols, table.FloatCol("northness"))
	return table.NewSchema(cols...)
}

// Build extracts one site row per plot from the field samples, decodes
// the treatment categories, and left-joins the topographic table (which
// may be nil). Plots missing from topo keep missing topographic fields;
// a plot with conflicting site-level values is fatal.
func Build(samples *table.Table, topo *table.Table, maps CodeMaps, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := map[string]int{}
	for _, name := range []string{"plotid", "treatment", "tsf", "nfires"} {
		j := samples.Col(name)
		if j < 0 {
			return nil, fmt.Errorf("samples table has no %s column", name)
		}
		idx[name] = j
	}

	// site-level tuple per plot; more than one distinct tuple is fatal
	type tuple [3]table.Value
	var order []int64
	tuples := map[int64]map[tuple]bool{}
	firstTuple := map[int64]tuple{}
	skipped := 0
	for _, row := range samples.Rows {
		pid, ok := row[idx["plotid"]].(table.Int)
		if !ok {
			skipped++
			continue
		}
		id := int64(pid)
		tp := tuple{row[idx["treatment"]], row[idx["tsf"]], row[idx["nfires"]]}
		if tuples[id] == nil {
			tuples[id] = map[tuple]bool{}
			firstTuple[id] = tp
			order = append(order, id)
		}
		tuples[id][tp] = true
	}
	if skipped > 0 {
		logger.Warn("sample rows without a plot id excluded from site extraction",
			zap.Int("rows", skipped))
	}

	var offenders []int64
	for id, set := range tuples {
		if len(set) > 1 {
			offenders = append(offenders, id)
		}
	}
	if len(offenders) > 0 {
		slices.Sort(offenders)
		return nil, &InconsistentSiteDataError{PlotIDs: offenders}
	}

	topoRows, err := topoByPlot(topo, logger)
	if err != nil {
		return nil, err
	}

	out := table.New(Schema(maps))
	unmatched := 0
	for _, id := range order {
		tp := firstTuple[id]
		harvest, firetreat, err := decodeTreatment(id, tp[0], maps)
		if err != nil {
			return nil, err
		}

		row := []table.Value{table.Int(id), tp[0], tp[1], tp[2], harvest, firetreat}
		tr, ok := topoRows[id]
		if !ok {
			unmatched++
		}
		var aspect table.Value = table.Missing{}
		for i, f := range topoFields {
			v := table.Value(table.Missing{})
			if ok {
				v = tr[i]
			}
			if f == "aspect" {
				aspect = v
			}
			row = append(row, v)
		}
		row = append(row, northness(aspect))
		if err := out.Append(row); err != nil {
			return nil, fmt.Errorf("site row for plot %d: %w", id, err)
		}
	}
	if unmatched > 0 {
		logger.Warn("plots without topographic records keep missing fields",
			zap.Int("plots", unmatched))
	}
	logger.Info("built site table", zap.Int("plots", out.NumRows()))
	return out, nil
}

// decodeTreatment derives the harvest and fire-treatment categories
// from the first and second characters of the treatment code. A missing
// treatment yields missing categories; a code outside the lookups is
// fatal.
func decodeTreatment(plot int64, treatment table.Value, maps CodeMaps) (table.Value, table.Value, error) {
	if table.IsMissing(treatment) {
		return table.Missing{}, table.Missing{}, nil
	}
	code, ok := table.Text(treatment)
	if !ok || len(code) < 2 {
		text, _ := table.Text(treatment)
		return nil, nil, &UnknownCategoryCodeError{PlotID: plot, Field: "treatment", Code: text}
	}
	harvest, ok := labelFor(maps.Harvest, code[0])
	if !ok {
		return nil, nil, &UnknownCategoryCodeError{PlotID: plot, Field: "harvest", Code: code[:1]}
	}
	firetreat, ok := labelFor(maps.FireTreatment, code[1])
	if !ok {
		return nil, nil, &UnknownCategoryCodeError{PlotID: plot, Field: "firetreatment", Code: code[1:2]}
	}
	return table.Factor(harvest), table.Factor(firetreat), nil
}

// topoByPlot indexes topographic rows by plot id; the first row wins
// when a plot appears twice.
func topoByPlot(topo *table.Table, logger *zap.Logger) (map[int64][]table.Value, error) {
	out := map[int64][]table.Value{}
	if topo == nil {
		return out, nil
	}
	pidIdx := topo.Col("plotid")
	if pidIdx < 0 {
		return nil, fmt.Errorf("topo table has no plotid column")
	}
	fieldIdx := make([]int, len(topoFields))
	for i, f := range topoFields {
		j := topo.Col(f)
		if j < 0 {
			return nil, fmt.Errorf("topo table has no %s column", f)
		}
		fieldIdx[i] = j
	}
	dups := 0
	for _, row := range topo.Rows {
		pid, ok := row[pidIdx].(table.Int)
		if !ok {
			continue
		}
		id := int64(pid)
		if _, seen := out[id]; seen {
			dups++
			continue
		}
		vals := make([]table.Value, len(topoFields))
		for i, j := range fieldIdx {
			vals[i] = row[j]
		}
		out[id] = vals
	}
	if dups > 0 {
		logger.Warn("duplicate topographic rows ignored", zap.Int("rows", dups))
	}
	return out, nil
}

// northness maps an aspect in degrees to sin(aspect): 0 at due north
// and south, 1 at east, -1 at west.
func northness(aspect table.Value) table.Value {
	a, ok := table.Number(aspect)
	if !ok {
		return table.Missing{}
	}
	return table.Float(math.Sin(a * math.Pi / 180))
}
