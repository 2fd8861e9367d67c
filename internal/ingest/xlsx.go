package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// xlsxReader reads the first worksheet of an .xlsx workbook without an
// external spreadsheet dependency: the workbook is a ZIP of XML parts,
// and only workbook.xml, its relationships, sharedStrings.xml, and one
// sheet part are needed to recover rows of cell text.
type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

func (xlsxReader) Read(p string) ([]string, [][]string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}

	sheetPart := firstSheetPart(zr)
	sheetXML := zipPart(zr, sheetPart)
	if sheetXML == nil {
		return nil, nil, fmt.Errorf("xlsx has no worksheet part %s", sheetPart)
	}
	shared := parseSharedStrings(zipPart(zr, "xl/sharedStrings.xml"))

	scan := newSheetScanner(sheetXML, shared)
	header, ok := scan.Next()
	if !ok {
		return nil, nil, nil
	}
	var rows [][]string
	for {
		row, ok := scan.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// firstSheetPart resolves the ZIP path of the workbook's first sheet in
// workbook order, falling back to the conventional sheet1.xml.
func firstSheetPart(zr *zip.Reader) string {
	rels := parseRelationships(zipPart(zr, "xl/_rels/workbook.xml.rels"))
	for _, rid := range workbookSheetRIDs(zipPart(zr, "xl/workbook.xml")) {
		if target, ok := rels[rid]; ok {
			return sheetPartPath(target)
		}
	}
	return "xl/worksheets/sheet1.xml"
}

// workbookSheetRIDs lists sheet relationship ids in workbook order.
func workbookSheetRIDs(data []byte) []string {
	var rids []string
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return rids
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "sheet" {
			for _, a := range se.Attr {
				if a.Name.Local == "id" {
					rids = append(rids, a.Value)
				}
			}
		}
	}
}

// parseRelationships maps relationship ids to their target paths.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

// sheetPartPath converts a relationship target to a ZIP entry path.
// Targets are relative to xl/ unless absolute.
func sheetPartPath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

func zipPart(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// parseSharedStrings collects the workbook's shared string table in
// index order, concatenating rich-text runs within each entry.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
}

// sheetScanner walks <row> elements of one worksheet part, resolving
// shared-string cells and placing each cell at the column position its
// reference (e.g. "C12") declares.
type sheetScanner struct {
	dec    *xml.Decoder
	shared []string
}

func newSheetScanner(data []byte, shared []string) *sheetScanner {
	return &sheetScanner{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the cells of the next row, or false at end of sheet.
func (s *sheetScanner) Next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				inRow = true
				row = nil
			case "c":
				if !inRow {
					continue
				}
				var ref, typ string
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := columnIndex(ref)
				if col < 0 {
					col = len(row)
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = s.cellValue(typ)
			}
		case xml.EndElement:
			if t.Name.Local == "row" {
				return row, true
			}
		}
	}
}

// cellValue reads the content of the current <c> element: the <v> text,
// or an inline-string <is><t> run, resolved through the shared-string
// table when the cell type is "s".
func (s *sheetScanner) cellValue(typ string) string {
	var val string
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return val
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "v" || t.Name.Local == "t" {
				val = s.elementText(t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "c" {
				if typ == "s" {
					if i, ok := parseDigits(val); ok && i < len(s.shared) {
						return s.shared[i]
					}
					return ""
				}
				return val
			}
		}
	}
}

func (s *sheetScanner) elementText(local string) string {
	var sb strings.Builder
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return sb.String()
		}
		if end, ok := tok.(xml.EndElement); ok && end.Name.Local == local {
			return sb.String()
		}
		if ch, ok := tok.(xml.CharData); ok {
			sb.Write(ch)
		}
	}
}

// columnIndex converts a cell reference like "C12" to a zero-based
// column index (2). Returns -1 when the reference has no letters.
func columnIndex(ref string) int {
	i := 0
	for i < len(ref) && (ref[i]|0x20 >= 'a' && ref[i]|0x20 <= 'z') {
		i++
	}
	if i == 0 {
		return -1
	}
	idx := 0
	for _, c := range strings.ToUpper(ref[:i]) {
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}

func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
