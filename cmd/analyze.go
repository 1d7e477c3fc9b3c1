package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/postlens/internal/metrics"
	"github.com/KaramelBytes/postlens/internal/utils"
	"github.com/KaramelBytes/postlens/internal/watch"
)

// exportAuto is the --export value used when the flag is given without a path.
const exportAuto = "auto"

var (
	anaInput      inputFlags
	anaQuery      queryFlags
	anaOutput     outputFlags
	anaOutputPath string
	anaExport     string
	anaWatch      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Report engagement metrics for one post export (XLSX/CSV/TSV)",
	Long: `Load a post export, apply the optional date range and keyword filter, and print
the aggregate metrics, post type distribution, top hashtags, daily series and a
performance table.

A date range needs both --from and --to with from <= to; anything else is
reported as a warning and the date filter is skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		loadOpt, err := anaInput.loadOptions(cmd)
		if err != nil {
			return err
		}
		format, repOpt, err := anaOutput.resolve(cmd)
		if err != nil {
			return err
		}
		q := anaQuery.query()
		runner := metrics.NewRunner(logger)
		out := cmd.OutOrStdout()

		analyze := func() error {
			ds, err := metrics.LoadFile(path, loadOpt)
			if err != nil {
				return err
			}
			res, err := runner.Run(ds, q)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
			}
			b, err := render(res, format, repOpt)
			if err != nil {
				return err
			}
			if anaOutputPath != "" {
				if err := utils.SafeWriteFile(anaOutputPath, b); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(out, "✓ Wrote report to %s\n", anaOutputPath)
			} else {
				fmt.Fprintln(out, string(b))
			}
			if anaExport != "" {
				dest, err := exportResult(ds, res, anaExport)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Exported %d posts to %s\n", len(res.Posts), dest)
			}
			return nil
		}
		if err := analyze(); err != nil {
			return err
		}
		if !watchEnabled(cmd, anaWatch) {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)...\n", path)
		return watch.File(ctx, path, watch.Options{Log: logger}, analyze)
	},
}

// exportResult writes the filtered posts as XLSX. dest may be a file path, an
// existing directory, or exportAuto for the configured export_dir.
func exportResult(ds *metrics.Dataset, res *metrics.Result, dest string) (string, error) {
	if dest == exportAuto {
		dest = currentConfig().ExportDir
		if dest == "" {
			dest = "."
		}
	}
	if st, err := os.Stat(dest); err == nil && st.IsDir() {
		dest = filepath.Join(dest, metrics.ExportFileName(ds))
	}
	var buf bytes.Buffer
	if err := metrics.Export(&buf, ds, res.Posts); err != nil {
		return "", err
	}
	if err := utils.SafeWriteFile(dest, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return dest, nil
}

// watchEnabled applies the --watch flag over the configured default.
func watchEnabled(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("watch") {
		return flag
	}
	return currentConfig().Watch
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd)
	anaQuery.register(analyzeCmd)
	anaOutput.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report instead of stdout")
	analyzeCmd.Flags().StringVar(&anaExport, "export", "", "write filtered posts as XLSX to this file or directory (bare --export uses export_dir)")
	analyzeCmd.Flags().Lookup("export").NoOptDefVal = exportAuto
	analyzeCmd.Flags().BoolVarP(&anaWatch, "watch", "w", false, "re-run whenever the input file changes")
}
