package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/postlens/internal/config"
	"github.com/KaramelBytes/postlens/internal/metrics"
	"github.com/KaramelBytes/postlens/internal/report"
	"github.com/KaramelBytes/postlens/internal/sheet"
	"github.com/KaramelBytes/postlens/internal/utils"
)

// inputFlags are the spreadsheet selection flags shared by every command that
// reads a file. Unset flags fall back to the configuration.
type inputFlags struct {
	sheetName  string
	sheetIndex int
	delimiter  string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
}

func (f *inputFlags) loadOptions(cmd *cobra.Command) (sheet.LoadOptions, error) {
	c := currentConfig()
	opt := sheet.LoadOptions{SheetName: c.SheetName, SheetIndex: c.SheetIndex}
	delim := c.Delimiter
	if cmd.Flags().Changed("sheet-name") {
		opt.SheetName = f.sheetName
	}
	if cmd.Flags().Changed("sheet-index") {
		if f.sheetIndex < 0 {
			return opt, fmt.Errorf("--sheet-index must be >= 1, got %d", f.sheetIndex)
		}
		opt.SheetIndex = f.sheetIndex
	}
	if cmd.Flags().Changed("delimiter") {
		delim = f.delimiter
	}
	r, err := cfgpkg.ParseDelimiter(delim)
	if err != nil {
		return opt, fmt.Errorf("unsupported --delimiter: %w", err)
	}
	opt.Delimiter = r
	return opt, nil
}

// queryFlags select the posts a run reports on.
type queryFlags struct {
	from    string
	to      string
	keyword string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "start date YYYY-MM-DD (requires --to)")
	cmd.Flags().StringVar(&f.to, "to", "", "end date YYYY-MM-DD, inclusive (requires --from)")
	cmd.Flags().StringVarP(&f.keyword, "keyword", "k", "", "keep posts whose text contains this keyword (case-insensitive)")
}

func (f *queryFlags) query() metrics.Query {
	return metrics.ParseQuery(f.from, f.to, f.keyword)
}

// outputFlags control how a result is rendered.
type outputFlags struct {
	format string
	rows   int
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: md | json (default from config)")
	cmd.Flags().IntVar(&f.rows, "rows", 0, "performance table rows in Markdown output (-1 = all, 0 = omit; default from config)")
}

func (f *outputFlags) resolve(cmd *cobra.Command) (string, report.Options, error) {
	c := currentConfig()
	format := c.OutputFormat
	if cmd.Flags().Changed("format") {
		format = strings.ToLower(strings.TrimSpace(f.format))
	}
	if format != "md" && format != "json" {
		return "", report.Options{}, fmt.Errorf("unsupported --format: %s (use md|json)", format)
	}
	opt := report.DefaultOptions()
	opt.TableRows = c.TableRows
	if cmd.Flags().Changed("rows") {
		opt.TableRows = f.rows
	}
	return format, opt, nil
}

func render(res *metrics.Result, format string, opt report.Options) ([]byte, error) {
	if format == "json" {
		return utils.PrettyJSON(res)
	}
	return []byte(report.Markdown(res, opt)), nil
}

func formatExt(format string) string {
	if format == "json" {
		return ".json"
	}
	return ".md"
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniquePath returns dir/base+suffix, or dir/base__N+suffix for the first N >= 2
// that does not exist yet.
func uniquePath(dir, base, suffix string) string {
	p := filepath.Join(dir, base+suffix)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	for i := 2; ; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, i, suffix))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
