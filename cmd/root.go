package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/postlens/internal/config"
	"github.com/KaramelBytes/postlens/internal/logging"
)

var (
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	logger logging.Logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "postlens",
	Short: "postlens: engagement metrics for social-media post exports",
	Long: `postlens reads a spreadsheet export of social-media posts (XLSX, CSV or TSV),
filters it by date range and keyword, derives engagement, post type and hashtags,
and reports aggregate metrics as Markdown, JSON, an XLSX export or a small HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.postlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text | json (overrides config)")
}

func loadConfig() {
	// .env values must be in the environment before viper reads it.
	loaded := cfgpkg.LoadEnv(nil)

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	level, format := cfg.LogLevel, cfg.LogFormat
	if debug {
		level = "debug"
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		format = logFormat
	}
	logger = logging.NewLogger(level, format)
	if len(loaded) > 0 {
		logger.WithField("files", loaded).Debug("loaded env files")
	}
}

// currentConfig returns the loaded configuration or the defaults.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}
