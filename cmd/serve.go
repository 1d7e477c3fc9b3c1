package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/postlens/internal/server"
	"github.com/KaramelBytes/postlens/internal/watch"
)

var (
	srvInput inputFlags
	srvAddr  string
	srvWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve metrics for a post export over a read-only JSON API",
	Long: `Load a post export once and answer queries over HTTP:

  GET /health
  GET /api/dataset
  GET /api/summary?start=YYYY-MM-DD&end=YYYY-MM-DD&keyword=...
  GET /api/table?start=...&end=...&keyword=...&limit=N
  GET /api/export?start=...&end=...&keyword=...   (XLSX download)
  GET /metrics                                    (Prometheus)

With --watch the file is reloaded whenever it changes; a reload that fails keeps
the previous data.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		loadOpt, err := srvInput.loadOptions(cmd)
		if err != nil {
			return err
		}
		addr := currentConfig().ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = srvAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := server.New(server.NewSession(path, loadOpt), logger, nil)
		if err := srv.Reload(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if watchEnabled(cmd, srvWatch) {
			go func() {
				if err := watch.File(ctx, path, watch.Options{Log: logger}, srv.Reload); err != nil {
					fmt.Fprintf(os.Stderr, "⚠ Warning: file watch stopped: %v\n", err)
				}
			}()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s on %s\n", path, addr)
		return server.Start(ctx, server.DefaultConfig(addr), srv.Router(), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvInput.register(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config listen_addr)")
	serveCmd.Flags().BoolVarP(&srvWatch, "watch", "w", false, "reload the file when it changes")
}
