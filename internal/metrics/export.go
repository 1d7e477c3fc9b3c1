package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/postlens/internal/sheet"
)

// Columns appended after the uploaded ones in an export.
const (
	ColTotalEngagement = "Total Engagement"
	ColShortPost       = "Short Post"
	ColPostType        = "Post Type"
	ColHashtags        = "Hashtags"
)

// ExportSheetName names the single worksheet of an export.
const ExportSheetName = "Filtered Data"

// ExportRows lays out posts with the dataset's columns followed by the derived
// ones. Coerced columns carry their normalized values so numbers stay numeric
// and dates are real date cells.
func ExportRows(ds *Dataset, posts []Post) ([]string, [][]sheet.Cell) {
	header := append(append([]string(nil), ds.Columns...),
		ColTotalEngagement, ColShortPost, ColPostType, ColHashtags)
	idx := locateColumns(ds.Columns)
	role := make(map[int]string, len(idx))
	for name, i := range idx {
		role[i] = name
	}

	rows := make([][]sheet.Cell, 0, len(posts))
	for _, p := range posts {
		row := make([]sheet.Cell, 0, len(header))
		for i := range ds.Columns {
			row = append(row, exportCell(p, role[i], i))
		}
		row = append(row,
			numberCell(p.TotalEngagement),
			sheet.Str(p.ShortLabel),
			sheet.Str(string(p.Type)),
			sheet.Str(strings.Join(p.Hashtags, ", ")),
		)
		rows = append(rows, row)
	}
	return header, rows
}

func exportCell(p Post, role string, i int) sheet.Cell {
	switch role {
	case ColDate:
		return sheet.Date(p.Date)
	case ColLikes:
		return numberCell(p.Likes)
	case ColComments:
		return numberCell(p.Comments)
	case ColShares:
		return numberCell(p.Shares)
	case ColClicks:
		return numberCell(p.Clicks)
	case ColImpressions:
		return numberCell(p.Impressions)
	}
	if i < len(p.Raw) {
		return sheet.Str(p.Raw[i])
	}
	return sheet.Cell{}
}

func numberCell(n Number) sheet.Cell {
	if !n.Valid {
		return sheet.Cell{}
	}
	return sheet.Num(n.Value)
}

// Export writes posts as an XLSX workbook in the upload's column layout with
// the derived columns appended.
func Export(w io.Writer, ds *Dataset, posts []Post) error {
	header, rows := ExportRows(ds, posts)
	if err := sheet.WriteXLSX(w, ExportSheetName, header, rows); err != nil {
		return fmt.Errorf("export %s: %w", ds.Name, err)
	}
	return nil
}

// ExportFileName is the download name for a filtered export of ds.
func ExportFileName(ds *Dataset) string {
	base := ds.Name
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "posts"
	}
	return "filtered_" + base + ".xlsx"
}
