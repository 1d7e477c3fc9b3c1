package server

import (
	"errors"
	"sync/atomic"

	"github.com/KaramelBytes/postlens/internal/metrics"
	"github.com/KaramelBytes/postlens/internal/sheet"
)

// ErrNoDataset is returned by handlers before any file has loaded.
var ErrNoDataset = errors.New("no dataset loaded")

// Session holds the dataset served by the API. Reload swaps it atomically so
// in-flight requests keep the snapshot they started with.
type Session struct {
	path string
	opt  sheet.LoadOptions
	ds   atomic.Pointer[metrics.Dataset]
}

// NewSession returns a Session reading path with opt. Nothing is loaded until
// Reload is called.
func NewSession(path string, opt sheet.LoadOptions) *Session {
	return &Session{path: path, opt: opt}
}

// Path is the source file.
func (s *Session) Path() string { return s.path }

// Dataset returns the current dataset or nil.
func (s *Session) Dataset() *metrics.Dataset { return s.ds.Load() }

// Replace installs ds directly.
func (s *Session) Replace(ds *metrics.Dataset) { s.ds.Store(ds) }

// Reload reads the source file again. On failure the previous dataset stays.
func (s *Session) Reload() (*metrics.Dataset, error) {
	ds, err := metrics.LoadFile(s.path, s.opt)
	if err != nil {
		return nil, err
	}
	s.ds.Store(ds)
	return ds, nil
}
