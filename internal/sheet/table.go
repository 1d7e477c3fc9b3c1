// Package sheet loads spreadsheet exports (XLSX, CSV, TSV) into raw string tables
// and writes tables back out as XLSX.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is an untyped grid: a header row followed by data rows.
// Every row has exactly len(Header) cells after loading.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// LoadOptions controls how a file is read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, chosen by extension (.tsv → tab, else comma).
	Delimiter rune
	// SheetName selects an XLSX sheet by name; takes precedence over SheetIndex.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet index.
	SheetIndex int
}

// Loader reads one family of tabular formats.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt LoadOptions) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a file format no loader accepts.
var ErrUnsupported = errors.New("unsupported spreadsheet format")

// Load selects a loader by filename and reads the table.
func Load(path string, opt LoadOptions) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%s: %w (use .xlsx, .csv or .tsv)", filepath.Base(path), ErrUnsupported)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxLoader) Load(path string, opt LoadOptions) (*Table, error) {
	return ReadXLSX(path, opt.SheetName, opt.SheetIndex)
}

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Load(path string, opt LoadOptions) (*Table, error) {
	return ReadCSV(path, opt.Delimiter)
}

// ReadCSV reads a delimited text file. A zero delim is sniffed from the extension.
func ReadCSV(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return DecodeCSV(f, filepath.Base(path), delim)
}

// DecodeCSV is ReadCSV for an arbitrary reader.
func DecodeCSV(rd io.Reader, name string, delim rune) (*Table, error) {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if delim != 0 {
		r.Comma = delim
	}
	t := &Table{Name: name}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	// strip a UTF-8 BOM left by spreadsheet exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t.Header = header
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	t.pad()
	return t, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// pad normalizes every row to the header width.
func (t *Table) pad() {
	n := len(t.Header)
	for i, row := range t.Rows {
		if len(row) == n {
			continue
		}
		fixed := make([]string, n)
		copy(fixed, row)
		t.Rows[i] = fixed
	}
}
