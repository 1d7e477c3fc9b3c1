package sheet

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// ExcelEpoch is day zero of the 1900 date system as spreadsheet serials count it.
var ExcelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Cell is one value written by WriteXLSX.
type Cell struct {
	Text  string
	Num   float64
	IsNum bool
	// IsDate formats Num as a yyyy-mm-dd day.
	IsDate bool
}

// Str returns a text cell.
func Str(s string) Cell { return Cell{Text: s} }

// Num returns a numeric cell. NaN and infinities are written as empty cells.
func Num(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Cell{}
	}
	return Cell{Num: f, IsNum: true}
}

// Date returns a date cell holding t's calendar day. The zero time is an empty cell.
func Date(t time.Time) Cell {
	if t.IsZero() {
		return Cell{}
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	serial := (day.Unix() - ExcelEpoch.Unix()) / 86400
	return Cell{Num: float64(serial), IsNum: true, IsDate: true}
}

// dateStyle is the cellXfs index of the yyyy-mm-dd format in stylesXML.
const dateStyle = 1

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>` +
		`<Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>` +
		`<Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>` +
		`</Types>`
	rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>` +
		`</Relationships>`
	workbookRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
		`</Relationships>`
	stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		`<numFmts count="1"><numFmt numFmtId="164" formatCode="yyyy-mm-dd"/></numFmts>` +
		`<fonts count="1"><font><sz val="11"/><name val="Calibri"/></font></fonts>` +
		`<fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills>` +
		`<borders count="1"><border><left/><right/><top/><bottom/><diagonal/></border></borders>` +
		`<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>` +
		`<cellXfs count="2"><xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/>` +
		`<xf numFmtId="164" fontId="0" fillId="0" borderId="0" xfId="0" applyNumberFormat="1"/></cellXfs>` +
		`</styleSheet>`
)

// WriteXLSX writes a single-sheet workbook with header as the first row.
// Strings are stored inline so no shared-strings part is needed.
func WriteXLSX(w io.Writer, sheetName string, header []string, rows [][]Cell) error {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"xl/workbook.xml", workbookXML(sheetName)},
		{"xl/_rels/workbook.xml.rels", []byte(workbookRelsXML)},
		{"xl/styles.xml", []byte(stylesXML)},
		{"xl/worksheets/sheet1.xml", worksheetXML(header, rows)},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := f.Write(p.body); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close xlsx: %w", err)
	}
	return nil
}

func workbookXML(sheetName string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="`)
	escape(&b, sheetName)
	b.WriteString(`" sheetId="1" r:id="rId1"/></sheets></workbook>`)
	return b.Bytes()
}

func worksheetXML(header []string, rows [][]Cell) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)
	hdr := make([]Cell, len(header))
	for i, h := range header {
		hdr[i] = Str(h)
	}
	writeRow(&b, 1, hdr)
	for i, row := range rows {
		writeRow(&b, i+2, row)
	}
	b.WriteString(`</sheetData></worksheet>`)
	return b.Bytes()
}

func writeRow(b *bytes.Buffer, n int, cells []Cell) {
	fmt.Fprintf(b, `<row r="%d">`, n)
	for i, c := range cells {
		ref := colName(i) + strconv.Itoa(n)
		switch {
		case c.IsDate:
			fmt.Fprintf(b, `<c r="%s" s="%d"><v>%s</v></c>`, ref, dateStyle, strconv.FormatFloat(c.Num, 'f', -1, 64))
		case c.IsNum:
			fmt.Fprintf(b, `<c r="%s"><v>%s</v></c>`, ref, strconv.FormatFloat(c.Num, 'f', -1, 64))
		case c.Text != "":
			fmt.Fprintf(b, `<c r="%s" t="inlineStr"><is><t xml:space="preserve">`, ref)
			escape(b, c.Text)
			b.WriteString(`</t></is></c>`)
		}
	}
	b.WriteString(`</row>`)
}

func escape(b *bytes.Buffer, s string) {
	_ = xml.EscapeText(b, []byte(s))
}

// colName maps 0 to "A", 25 to "Z", 26 to "AA".
func colName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
