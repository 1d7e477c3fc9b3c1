package metrics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/postlens/internal/sheet"
)

// Input column names, matched after trimming whitespace.
const (
	ColPlatform    = "Platform"
	ColPerson      = "Person"
	ColDate        = "Date"
	ColPost        = "Post"
	ColLikes       = "Likes"
	ColComments    = "Comments"
	ColShares      = "Shares"
	ColClicks      = "Clicks"
	ColImpressions = "Impressions"
)

const (
	DefaultPlatform = "Unknown"
	DefaultPerson   = "N/A"
)

var requiredColumns = []string{ColDate, ColPost, ColLikes, ColComments, ColShares, ColClicks, ColImpressions}

// Normalize validates the header and coerces every row into a Post.
// Cells that cannot be coerced become null; only a missing required column
// is an error.
func Normalize(t *sheet.Table) (*Dataset, error) {
	header := make([]string, len(t.Header))
	for i, h := range t.Header {
		header[i] = strings.TrimSpace(h)
	}
	idx := locateColumns(header)
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	ds := &Dataset{
		Name:     t.Name,
		Columns:  header,
		Platform: firstValue(t.Rows, idx, ColPlatform, DefaultPlatform),
		Person:   firstValue(t.Rows, idx, ColPerson, DefaultPerson),
		Posts:    make([]Post, 0, len(t.Rows)),
	}
	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	for _, row := range t.Rows {
		raw := make([]string, len(header))
		copy(raw, row)
		text := cell(row, ColPost)
		p := Post{
			Text:        text,
			HasText:     strings.TrimSpace(text) != "",
			Likes:       ParseNumber(cell(row, ColLikes)),
			Comments:    ParseNumber(cell(row, ColComments)),
			Shares:      ParseNumber(cell(row, ColShares)),
			Clicks:      ParseNumber(cell(row, ColClicks)),
			Impressions: ParseNumber(cell(row, ColImpressions)),
			Platform:    ds.Platform,
			Person:      ds.Person,
			Raw:         raw,
		}
		if d, ok := ParseDate(cell(row, ColDate)); ok {
			p.Date = d
		}
		ds.Posts = append(ds.Posts, p)
	}
	return ds, nil
}

// locateColumns maps canonical column names to header positions. Exact matches
// win; a case-insensitive match is accepted otherwise.
func locateColumns(header []string) map[string]int {
	idx := map[string]int{}
	all := append([]string{ColPlatform, ColPerson}, requiredColumns...)
	for _, want := range all {
		for i, h := range header {
			if h == want {
				idx[want] = i
				break
			}
		}
		if _, ok := idx[want]; ok {
			continue
		}
		for i, h := range header {
			if strings.EqualFold(h, want) {
				idx[want] = i
				break
			}
		}
	}
	return idx
}

func firstValue(rows [][]string, idx map[string]int, col, def string) string {
	i, ok := idx[col]
	if !ok {
		return def
	}
	for _, row := range rows {
		if i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
	}
	return def
}

// ParseNumber coerces a count cell. Empty, non-numeric, non-finite and negative
// values are null. Thousands separators are tolerated: when a value has both
// ',' and '.', the later one is the decimal mark; a lone separator followed by
// groups of exactly three digits is a thousands separator.
func ParseNumber(s string) Number {
	raw := strings.ReplaceAll(s, "\u00a0", " ")
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if raw == "" {
		return Number{}
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	dec, thou := ".", ","
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			dec, thou = ",", "."
		}
	case cpos >= 0:
		if !thousandsGrouped(raw, ",") {
			dec, thou = ",", "."
		}
	case dpos >= 0:
		if strings.Count(raw, ".") > 1 && thousandsGrouped(raw, ".") {
			dec, thou = ",", "."
		}
	}
	raw = strings.ReplaceAll(raw, thou, "")
	if dec != "." {
		raw = strings.ReplaceAll(raw, dec, ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return Number{}
	}
	return Num(f)
}

func thousandsGrouped(s, sep string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	parts := strings.Split(s, sep)
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/06",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Spreadsheet serial days accepted as dates: 1927-05-18 through 9999-12-31.
// Smaller numbers are more likely counts or years than dates.
const (
	minSerialDay = 10000
	maxSerialDay = 2958466
)

// ParseDate coerces a date cell to a calendar day in UTC. Ambiguous slash dates
// are month-first. A bare four-digit year is January 1 of that year, and larger
// plain numbers are spreadsheet serial days.
func ParseDate(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return day(t), true
		}
	}
	if len(v) == 4 {
		if y, err := strconv.Atoi(v); err == nil && y >= 1000 {
			return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f >= minSerialDay && f < maxSerialDay {
		return day(sheet.ExcelEpoch.AddDate(0, 0, int(f))), true
	}
	return time.Time{}, false
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
