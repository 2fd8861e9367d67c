package ingest

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/karstfen/soilcn/internal/table"
)

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Core_ID":        "coreid",
		"Bulk.Density":   "bulkdensity",
		" Total Carbon ": "totalcarbon",
		"\ufeffPlot_ID":  "plotid",
		"nfires":         "nfires",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Fatalf("NormalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2.625", 2.625},
		{"1,234.5", 1234.5},
		{"2,5", 2.5},
		{"3 000", 3000},
		{"45%", 45},
	}
	for _, c := range cases {
		got, ok := parseNumber(c.in)
		if !ok {
			t.Fatalf("parseNumber(%q) failed", c.in)
		}
		if got != c.want {
			t.Fatalf("parseNumber(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, ok := parseNumber("dark brown"); ok {
		t.Fatalf("parseNumber accepted non-numeric text")
	}
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "raw.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return p
}

func rawTestSchema() table.Schema {
	return table.NewSchema(
		table.StringCol("coreid"),
		table.IntCol("plotid"),
		table.StringCol("standard"),
		table.FloatCol("totalcarbon"),
	)
}

func TestLoadCSV(t *testing.T) {
	p := writeTempCSV(t, "Core_ID,Plot_ID,Standard,Total.Carbon\n"+
		"P1C1,1,,2.625\n"+
		"STD1,1,glucose,41.2\n"+
		"P1C2,1,NA,not a number\n")

	tab, err := Load(p, rawTestSchema(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tab.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", tab.NumRows())
	}

	// blank standard cell stays an empty string, NA becomes Missing
	if got := tab.Rows[0][2]; got != table.String("") {
		t.Fatalf("row 0 standard = %#v, want empty string", got)
	}
	if got := tab.Rows[1][2]; got != table.String("glucose") {
		t.Fatalf("row 1 standard = %#v", got)
	}
	if !table.IsMissing(tab.Rows[2][2]) {
		t.Fatalf("row 2 standard = %#v, want Missing", tab.Rows[2][2])
	}

	if got := tab.Rows[0][3]; got != table.Float(2.625) {
		t.Fatalf("row 0 totalcarbon = %#v", got)
	}
	// unparsable numeric cell degrades to Missing, not an error
	if !table.IsMissing(tab.Rows[2][3]) {
		t.Fatalf("row 2 totalcarbon = %#v, want Missing", tab.Rows[2][3])
	}
	if got := tab.Rows[0][1]; got != table.Int(1) {
		t.Fatalf("row 0 plotid = %#v", got)
	}
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	p := writeTempCSV(t, "Core_ID,Plot_ID\nP1C1,1\n")

	schema := table.NewSchema(table.StringCol("coreid"), table.FloatCol("bulkdensity"))
	_, err := Load(p, schema, nil)
	if err == nil {
		t.Fatalf("expected error for missing column")
	}
	if !IsMalformedInputError(err) {
		t.Fatalf("error = %v, want MalformedInputError", err)
	}
	var merr *MalformedInputError
	if !errors.As(err, &merr) || merr.Column != "bulkdensity" {
		t.Fatalf("error does not name the missing column: %v", err)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.docx")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(p, rawTestSchema(), nil)
	if !IsMalformedInputError(err) {
		t.Fatalf("error = %v, want MalformedInputError", err)
	}
}

func TestLoadShortRowsPadMissing(t *testing.T) {
	p := writeTempCSV(t, "Core_ID,Plot_ID,Standard,Total.Carbon\nP1C1,1\n")

	tab, err := Load(p, rawTestSchema(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tab.Rows[0][2]; got != table.String("") {
		t.Fatalf("padded standard cell = %#v, want empty string", got)
	}
	if !table.IsMissing(tab.Rows[0][3]) {
		t.Fatalf("padded totalcarbon = %#v, want Missing", tab.Rows[0][3])
	}
}

func TestLoadXLSX(t *testing.T) {
	p := filepath.Join(t.TempDir(), "raw.xlsx")
	writeXLSX(t, p, [][]string{
		{"Core_ID", "Plot_ID", "Standard", "Total.Carbon"},
		{"P1C1", "1", "", "2.625"},
		{"STD1", "1", "glucose", "41.2"},
	})

	tab, err := Load(p, rawTestSchema(), nil)
	if err != nil {
		t.Fatalf("Load xlsx: %v", err)
	}
	if tab.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", tab.NumRows())
	}
	if got := tab.Rows[0][0]; got != table.String("P1C1") {
		t.Fatalf("row 0 coreid = %#v", got)
	}
	if got := tab.Rows[1][2]; got != table.String("glucose") {
		t.Fatalf("row 1 standard = %#v", got)
	}
	if got := tab.Rows[0][3]; got != table.Float(2.625) {
		t.Fatalf("row 0 totalcarbon = %#v", got)
	}
}

// writeXLSX builds a minimal single-sheet workbook: text cells go
// through the shared-string table, numeric cells are stored inline.
func writeXLSX(t *testing.T, path string, rows [][]string) {
	t.Helper()

	var shared []string
	sharedIdx := map[string]int{}
	internString := func(s string) int {
		if i, ok := sharedIdx[s]; ok {
			return i
		}
		sharedIdx[s] = len(shared)
		shared = append(shared, s)
		return len(shared) - 1
	}

	sheet := `<?xml version="1.0" encoding="UTF-8"?><worksheet><sheetData>`
	for r, row := range rows {
		sheet += fmt.Sprintf(`<row r="%d">`, r+1)
		for c, cell := range row {
			ref := fmt.Sprintf("%c%d", 'A'+c, r+1)
			if _, ok := parseDigits(cell); ok || isFloatCell(cell) {
				sheet += fmt.Sprintf(`<c r="%s"><v>%s</v></c>`, ref, cell)
			} else if cell != "" {
				sheet += fmt.Sprintf(`<c r="%s" t="s"><v>%d</v></c>`, ref, internString(cell))
			}
		}
		sheet += `</row>`
	}
	sheet += `</sheetData></worksheet>`

	sst := `<?xml version="1.0" encoding="UTF-8"?><sst>`
	for _, s := range shared {
		sst += `<si><t>` + s + `</t></si>`
	}
	sst += `</sst>`

	parts := map[string]string{
		"xl/workbook.xml":            `<?xml version="1.0"?><workbook><sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0"?><Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/sharedStrings.xml":       sst,
		"xl/worksheets/sheet1.xml":   sheet,
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create xlsx: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}

func isFloatCell(s string) bool {
	_, ok := parseNumber(s)
	return ok
}
