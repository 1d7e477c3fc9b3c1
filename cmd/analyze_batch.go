package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/postlens/internal/metrics"
	"github.com/KaramelBytes/postlens/internal/utils"
)

var (
	abInput  inputFlags
	abQuery  queryFlags
	abOutput outputFlags
	abOutDir string
	abExport bool
	abQuiet  bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Report metrics for several post exports with the same filters",
	Long: `Run the same date range and keyword filter over every matched file. Arguments
may be globs. With --out-dir each report is written to <name>.summary.md (or .json);
a name that is already taken gets a __2, __3, ... suffix. Files that fail to load are
reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		loadOpt, err := abInput.loadOptions(cmd)
		if err != nil {
			return err
		}
		format, repOpt, err := abOutput.resolve(cmd)
		if err != nil {
			return err
		}
		if abExport && abOutDir == "" {
			return fmt.Errorf("--export requires --out-dir")
		}
		if abOutDir != "" {
			if err := os.MkdirAll(abOutDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		q := abQuery.query()
		runner := metrics.NewRunner(logger)
		out := cmd.OutOrStdout()

		failed := 0
		warned := false
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			ds, err := metrics.LoadFile(path, loadOpt)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "⚠ Warning: skipping %s: %v\n", path, err)
				continue
			}
			res, err := runner.Run(ds, q)
			if err != nil {
				return err
			}
			// The query is shared, so its warnings are the same for every file.
			if !warned {
				for _, w := range res.Warnings {
					fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
				}
				warned = true
			}
			b, err := render(res, format, repOpt)
			if err != nil {
				return err
			}
			if abOutDir == "" {
				if !abQuiet {
					fmt.Fprintln(out, string(b))
				}
				continue
			}

			name := stem(path)
			outFile := uniquePath(abOutDir, name, ".summary"+formatExt(format))
			if err := utils.SafeWriteFile(outFile, b); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", filepath.Base(outFile))
			}
			if abExport {
				dest := uniquePath(abOutDir, stem(metrics.ExportFileName(ds)), ".xlsx")
				if _, err := exportResult(ds, res, dest); err != nil {
					return err
				}
				if !abQuiet {
					fmt.Fprintf(out, "✓ Exported %d posts to %s\n", len(res.Posts), filepath.Base(dest))
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be analyzed", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abInput.register(analyzeBatchCmd)
	abQuery.register(analyzeBatchCmd)
	abOutput.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for per-file reports (default: print to stdout)")
	analyzeBatchCmd.Flags().BoolVar(&abExport, "export", false, "also write filtered_<name>.xlsx per file into --out-dir")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
