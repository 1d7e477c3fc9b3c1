package sheet

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Two-sheet workbook saved by a spreadsheet application; sheet 2 ("Data") holds
// semicolon-locale numbers stored as shared strings.
const xlsxFixtureBase64 = `
UEsDBBQAAAAIAMEwN1vYAxPv/wAAALYCAAATABwAW0NvbnRlbnRfVHlwZXNdLnhtbFVUCQADyjjSaMo40mh1eAsAAQQAAAAABAAAAAC1ks1OwzAQhO95CsvX
Kt60B4RQkh74OQKH8gDG3iRW/CfbLeHtcVIEEqIIpHJaWTOz32jlejsZTQ4YonK2oWtWUYJWOKls39Cn3V15SbdtUe9ePUaSvTY2dEjJXwFEMaDhkTmPNiud
C4an/Aw9eC5G3iNsquoChLMJbSrTvIO2BSH1DXZ8rxO5nbJyRAfUkZLro3fGNZR7r5XgKetwsPILqHyHsJxcPHFQPq6ygcIpyCyeZnxGH/JFgpJIHnlI99xk
I0waXlwYn50b2c97vunquk4JlE7sTY6w6ANyGQfEZDRbJjNc2dWvKiz+CMtYn7nLx/6/V9n8d5Ualm/YFm9QSwMECgAAAAAAxDA3WwAAAAAAAAAAAAAAAAMA
HAB4bC9VVAkAA9A40mjyONJodXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIAMQwN1tM2kS6xQAAAEkBAAAPABwAeGwvd29ya2Jvb2sueG1sVVQJAAPQONJo0DjS
aHV4CwABBAAAAAAEAAAAAI1Qu27DMAzc/RUC90aOhyIwZGcJAnhvP0CxaVuIRRqk+vj8qjEMZOjQ7Y7k3ZF05++4mE8UDUwNHA8lGKSeh0BTA+9v15cTnNvC
fbHcb8x3k8dJG5hTWmtrtZ8xej3wipQ7I0v0KVOZrK6CftAZMcXFVmX5aqMPBJtDLf/x4HEMPV64/4hIaTMRXHzKy+ocVoW2MMY9QvQX7sSQj9hANxELgnnU
uiHfB0bqkIF0wxHsH5KLT/5JUD0Jqk3g7J7n7P6WtvgBUEsDBAoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABwAeGwvd29ya3NoZWV0cy9VVAkAA+s40mjyONJo
dXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIANIwN1u3fFZsqwIAAIASAAAYABwAeGwvd29ya3NoZWV0cy9zaGVldDIueG1sVVQJAAPrONJo6zjSaHV4CwABBAAA
AAAEAAAAAJ3YT26bQBiH4X1OgVilkguD/wEVJkoMzibKJukBJngMqGYGDeMkvVXP0JN1nEhVQ/r7QCxx/BDsV9/gIbl6bY7Os9BdreTGDTzmOkIWal/LcuN+
f9x9jdyr9CJ5UfpHVwlhHPt+2W3cypj2m+93RSUa3nmqFdL+5aB0w4091KXftVrw/Rtqjv6csbXf8Fq66YXjJG8vZ9zw85E91urF0fb/u+/H9pXifHwduI7Z
uLU81lI8GO2mSd2liUlvtTq1iW/SxD+/4Bcf3Q1yWyULIY3mxn5e57L0777gs2zRWR5F0zqXv3/tCJwh/FAoLbDLkbtTBT+K+1PzJDTmO/jJuRGl0j8xvUX0
Xpn/XHDi22gf8837+ebgjNdEOmTYbEWkQipkRCKEAjYjWA6Zxxgpd0jyY1txogxyh1p3ZlSaRT/NYkIaZNhsTaRBKgyINAgFAZkGMi8YSIPkUBrkOlEouR/V
Ztlvs5zQBhk7NtTcILaOiTgIxdSI5vAKvXigDZJPwlBpEDNVrceVWfXLrMApb4gyyLBZSIRBKiS+4gyhgFw8c8g8tqLLIDk0Ncgd1EmbalSbdb/NekIbZOyK
Rk0NYuGSiINQPIuINvAKvTii2yA5MDWIHerDyDJhv0w4oQwytgzxdW0RCxdEGYTs2MyJNJB5bE6nQXJobJDr6teRbaJ+m2jCvQYZu8oQ39cWMSpohlBETg28
Qi8amBokS940VBrkOvFsNxzj4sT9OPGEwUHG3m6oJQ2xkPhplyEUU7e2HF6hF4d0HCQHljTERF1WI9ME7NPWlE2YHIgW1OfeQhZTvwagom/qOXaDGxxIh1Y2
CGU9dnqCz08P0I6Wmh+I7J2H2uZAFxJrYgaVvfcQ+6McO4/R29cdpENLHIRmYIVL/H+e9yT+34dJ6cUfUEsDBBQAAAAIAMcwN1sqMey0swAAAPgAAAAYABwA
eGwvd29ya3NoZWV0cy9zaGVldDEueG1sVVQJAAPWONJo1jjSaHV4CwABBAAAAAAEAAAAAE2P3WrDMAxG7/MURverkl6MUhyXwegLrHsA46iNqf+QxbLHr5OO
0cvzSfoO0qffGNQPcfU5jTDselCUXJ58uo3wfTm/HeBkOr1kvteZSFTbT3WEWaQcEaubKdq6y4VSm1wzRysN+Ya1MNlpO4oB933/jtH6BKZTSm/xpxW7UmPO
i+Lmhye3xK38MYCSEXwKPtGXMBjtq9FiSrCO5hwmYo1iNK4xur82bHWbBl88Gv+fMN0DUEsDBAoAAAAAAMYwN1sAAAAAAAAAAAAAAAAJABwAeGwvX3JlbHMv
VVQJAAPTONJo8jjSaHV4CwABBAAAAAAEAAAAAFBLAwQUAAAACADGMDdbCmPblLYAAACtAQAAGgAcAHhsL19yZWxzL3dvcmtib29rLnhtbC5yZWxzVVQJAAPT
ONJo0zjSaHV4CwABBAAAAAAEAAAAAL2QSwrCMBBA9z1FmL2dtgsRadqNCN1KPUBIpx/aJiGJv9sbBMWCgitXw/zePCYvr/PEzmTdoBWHNE6AkZK6GVTH4Vjv
Vxsoiyg/0CR8GHH9YBwLO8px6L03W0Qne5qFi7UhFTqttrPwIbUdGiFH0RFmSbJG+86AImJsgWVVw8FWTQqsvhn6Ba/bdpC00/I0k/IfruBF29H1RD5Ahe3I
c3iVHD5CGgcq4Fef7M8+2dMnx8XXi+gOUEsDBAoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABwAX3JlbHMvVVQJAAPNONJo8jjSaHV4CwABBAAAAAAEAAAAAFBL
AwQUAAAACADDMDdbDxvLDKoAAAAcAQAACwAcAF9yZWxzLy5yZWxzVVQJAAPNONJozTjSaHV4CwABBAAAAAAEAAAAAI3PsQ6CMBAG4J2naG6XgoMxxsJiTFgN
PkAtRyHQXtNWxbe3oxgHx8v9913+Y72YmT3Qh5GsgDIvgKFV1I1WC7i2580e6io7XnCWMUXCMLrA0o0NAoYY3YHzoAY0MuTk0KZNT97ImEavuZNqkhr5tih2
3H8aUGWMrVjWdAJ805XA2pfDf3jq+1HhidTdoI0/vnwlkiy9xihgmfmT/HQjmvKEAk8d+apklb0BUEsBAh4DFAAAAAgAwTA3W9gDE+//AAAAtgIAABMAGAAA
AAAAAQAAAKSBAAAAAFtDb250ZW50X1R5cGVzXS54bWxVVAUAA8o40mh1eAsAAQQAAAAABAAAAABQSwECHgMKAAAAAADEMDdbAAAAAAAAAAAAAAAAAwAYAAAA
AAAAABAA7UFMAQAAeGwvVVQFAAPQONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DFAAAAAgAxDA3W0zaRLrFAAAASQEAAA8AGAAAAAAAAQAAAKSBiQEAAHhsL3dv
cmtib29rLnhtbFVUBQAD0DjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABgAAAAAAAAAEADtQZcCAAB4bC93b3Jrc2hl
ZXRzL1VUBQAD6zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIANIwN1u3fFZsqwIAAIASAAAYABgAAAAAAAEAAACkgd8CAAB4bC93b3Jrc2hlZXRzL3No
ZWV0Mi54bWxVVAUAA+s40mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADHMDdbKjHstLMAAAD4AAAAGAAYAAAAAAABAAAApIHcBQAAeGwvd29ya3NoZWV0
cy9zaGVldDEueG1sVVQFAAPWONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DCgAAAAAAxjA3WwAAAAAAAAAAAAAAAAkAGAAAAAAAAAAQAO1B4QYAAHhsL19yZWxz
L1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIAMYwN1sKY9uUtgAAAK0BAAAaABgAAAAAAAEAAACkgSQHAAB4bC9fcmVscy93b3JrYm9vay54
bWwucmVsc1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABgAAAAAAAAAEADtQS4IAABfcmVscy9VVAUAA804
0mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADDMDdbDxvLDKoAAAAcAQAACwAYAAAAAAABAAAApIFuCAAAX3JlbHMvLnJlbHNVVAUAA8040mh1eAsAAQQA
AAAABAAAAABQSwUGAAAAAAoACgBTAwAAXQkAAAAA
`

func writeFixture(t *testing.T) string {
	t.Helper()
	raw := strings.ReplaceAll(strings.TrimSpace(xlsxFixtureBase64), "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode xlsx fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "analysis_dataset.xlsx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write xlsx fixture: %v", err)
	}
	return path
}

func TestReadXLSXSheetSelection(t *testing.T) {
	path := writeFixture(t)
	expectFirst := []string{"A", "0,5", "70", "10,0", "1.000,0", "alpha", "first"}

	byName, err := ReadXLSX(path, "data", 0)
	if err != nil {
		t.Fatalf("ReadXLSX by name: %v", err)
	}
	byIndex, err := ReadXLSX(path, "", 2)
	if err != nil {
		t.Fatalf("ReadXLSX by index: %v", err)
	}
	for _, tbl := range []*Table{byName, byIndex} {
		if tbl.Name != "analysis_dataset.xlsx" {
			t.Fatalf("name = %q", tbl.Name)
		}
		if len(tbl.Header) != 7 || tbl.Header[0] != "Group" {
			t.Fatalf("header = %#v", tbl.Header)
		}
		if len(tbl.Rows) != 10 {
			t.Fatalf("rows = %d, want 10", len(tbl.Rows))
		}
		if !equalStrings(tbl.Rows[0], expectFirst) {
			t.Fatalf("first row = %#v, want %#v", tbl.Rows[0], expectFirst)
		}
		for i, row := range tbl.Rows {
			if len(row) != len(tbl.Header) {
				t.Fatalf("row %d has %d cells, want %d", i, len(row), len(tbl.Header))
			}
		}
	}
}

func TestReadXLSXUnknownSheet(t *testing.T) {
	path := writeFixture(t)
	_, err := ReadXLSX(path, "Missing", 0)
	if err == nil {
		t.Fatalf("expected error for unknown sheet")
	}
	if !strings.Contains(err.Error(), "Available sheets:") || !strings.Contains(err.Error(), "Data") {
		t.Fatalf("error should list sheets: %v", err)
	}
}

func TestWriteXLSXReadBack(t *testing.T) {
	var buf bytes.Buffer
	header := []string{"Date", "Post", "Likes", "Hashtags"}
	rows := [][]Cell{
		{Str("2024-03-01"), Str("Tips & tricks <for> \"Go\""), Num(13), Str("#go, #tips")},
		{Str("2024-03-02"), Str(""), Num(2.5), {}},
	}
	if err := WriteXLSX(&buf, "Filtered", header, rows); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	tbl, err := DecodeXLSX(buf.Bytes(), "out.xlsx", "Filtered", 0)
	if err != nil {
		t.Fatalf("DecodeXLSX: %v", err)
	}
	if !equalStrings(tbl.Header, header) {
		t.Fatalf("header = %#v", tbl.Header)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	want0 := []string{"2024-03-01", "Tips & tricks <for> \"Go\"", "13", "#go, #tips"}
	if !equalStrings(tbl.Rows[0], want0) {
		t.Fatalf("row 0 = %#v, want %#v", tbl.Rows[0], want0)
	}
	want1 := []string{"2024-03-02", "", "2.5", ""}
	if !equalStrings(tbl.Rows[1], want1) {
		t.Fatalf("row 1 = %#v, want %#v", tbl.Rows[1], want1)
	}
}

func TestLoadDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	tsv := filepath.Join(dir, "posts.tsv")
	if err := os.WriteFile(tsv, []byte("\ufeffDate\tPost\n2024-01-01\thello, world\n\t\n2024-01-02\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(tsv, LoadOptions{})
	if err != nil {
		t.Fatalf("Load tsv: %v", err)
	}
	if !equalStrings(tbl.Header, []string{"Date", "Post"}) {
		t.Fatalf("header = %#v", tbl.Header)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (blank row skipped)", len(tbl.Rows))
	}
	if tbl.Rows[0][1] != "hello, world" {
		t.Fatalf("cell = %q", tbl.Rows[0][1])
	}
	if !equalStrings(tbl.Rows[1], []string{"2024-01-02", ""}) {
		t.Fatalf("short row not padded: %#v", tbl.Rows[1])
	}

	_, err = Load(filepath.Join(dir, "posts.ods"), LoadOptions{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestWriteXLSXDateCells(t *testing.T) {
	var buf bytes.Buffer
	rows := [][]Cell{
		{Date(time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC)), Str("a")},
		{Date(time.Time{}), Str("b")},
		{Date(time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)), Str("c")},
	}
	if err := WriteXLSX(&buf, "", []string{"Date", "Post"}, rows); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	tbl, err := DecodeXLSX(buf.Bytes(), "out.xlsx", "", 0)
	if err != nil {
		t.Fatalf("DecodeXLSX: %v", err)
	}
	want := [][]string{{"45352", "a"}, {"", "b"}, {"61", "c"}}
	for i, w := range want {
		if !equalStrings(tbl.Rows[i], w) {
			t.Fatalf("row %d = %#v, want %#v", i, tbl.Rows[i], w)
		}
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	sheetXML := string(readZipFile(zr, "xl/worksheets/sheet1.xml"))
	if !strings.Contains(sheetXML, `<c r="A2" s="1"><v>45352</v></c>`) {
		t.Fatalf("date cell not styled: %s", sheetXML)
	}
	styles := string(readZipFile(zr, "xl/styles.xml"))
	if !strings.Contains(styles, `formatCode="yyyy-mm-dd"`) {
		t.Fatalf("missing date number format: %s", styles)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestColumnRefs(t *testing.T) {
	for i, ref := range map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"} {
		if got := colName(i); got != ref {
			t.Errorf("colName(%d) = %q, want %q", i, got, ref)
		}
		if got := colIndexFromRef(ref + "12"); got != i {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref+"12", got, i)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
