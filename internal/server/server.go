// Package server exposes pipeline results over a read-only JSON API.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/postlens/internal/logging"
	"github.com/KaramelBytes/postlens/internal/metrics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Config represents server configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default server configuration for addr.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:         addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Server answers queries against a Session.
type Server struct {
	session *Session
	runner  *metrics.Runner
	log     logging.Logger
	mc      *Collector
}

// New returns a Server. A nil log discards and a nil collector gets a fresh one.
func New(session *Session, log logging.Logger, mc *Collector) *Server {
	if log == nil {
		log = logging.Discard()
	}
	if mc == nil {
		mc = NewCollector()
	}
	return &Server{session: session, runner: metrics.NewRunner(log), log: log, mc: mc}
}

// Collector returns the server metrics.
func (s *Server) Collector() *Collector { return s.mc }

// Reload re-reads the session file and records the outcome.
func (s *Server) Reload() error {
	ds, err := s.session.Reload()
	if err != nil {
		s.mc.ObserveReload(0, err)
		return err
	}
	s.mc.ObserveReload(len(ds.Posts), nil)
	s.log.WithFields(logging.Fields{"dataset": ds.Name, "rows": len(ds.Posts)}).Info("dataset loaded")
	return nil
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(Logging(s.log))
	r.Use(Recovery(s.log))
	r.Use(s.mc.Middleware())

	r.GET("/health", s.health)
	r.GET("/metrics", s.mc.Handler())

	api := r.Group("/api")
	api.GET("/dataset", s.dataset)
	api.GET("/summary", s.summary)
	api.GET("/table", s.table)
	api.GET("/export", s.export)
	return r
}

func (s *Server) health(c *gin.Context) {
	ds := s.session.Dataset()
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"loaded": ds != nil,
		"source": s.session.Path(),
	})
}

func (s *Server) dataset(c *gin.Context) {
	ds := s.session.Dataset()
	if ds == nil {
		abortJSON(c, http.StatusServiceUnavailable, ErrNoDataset)
		return
	}
	c.JSON(http.StatusOK, ds.Info())
}

func (s *Server) summary(c *gin.Context) {
	_, res, ok := s.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) table(c *gin.Context) {
	_, res, ok := s.run(c)
	if !ok {
		return
	}
	rows := metrics.PerformanceTable(res.Posts)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			abortJSON(c, http.StatusBadRequest, fmt.Errorf("limit must be a non-negative integer, got %q", v))
			return
		}
		if n < len(rows) {
			rows = rows[:n]
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":   res.RunID,
		"total":    len(res.Posts),
		"rows":     rows,
		"warnings": res.Warnings,
	})
}

func (s *Server) export(c *gin.Context) {
	ds, res, ok := s.run(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := metrics.Export(&buf, ds, res.Posts); err != nil {
		_ = c.Error(err)
		abortJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", metrics.ExportFileName(ds)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// run executes the pipeline for the request's start, end and keyword
// parameters. It writes the error response itself and reports ok=false.
func (s *Server) run(c *gin.Context) (*metrics.Dataset, *metrics.Result, bool) {
	ds := s.session.Dataset()
	if ds == nil {
		abortJSON(c, http.StatusServiceUnavailable, ErrNoDataset)
		return nil, nil, false
	}
	q := metrics.ParseQuery(c.Query("start"), c.Query("end"), c.Query("keyword"))
	start := time.Now()
	res, err := s.runner.Run(ds, q)
	if err != nil {
		s.mc.ObserveRun("error", time.Since(start))
		_ = c.Error(err)
		abortJSON(c, http.StatusInternalServerError, err)
		return nil, nil, false
	}
	s.mc.ObserveRun(outcome(res), time.Since(start))
	return ds, res, true
}

func outcome(res *metrics.Result) string {
	switch {
	case res.Empty:
		return "empty"
	case len(res.Warnings) > 0:
		return "invalid_range"
	default:
		return "ok"
	}
}

func abortJSON(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// Start serves handler on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func Start(ctx context.Context, cfg Config, handler http.Handler, log logging.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
