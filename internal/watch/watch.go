// Package watch reruns work when an input file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KaramelBytes/postlens/internal/logging"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Options tunes File.
type Options struct {
	Debounce time.Duration
	Log      logging.Logger
}

// File calls onChange each time path is written or recreated, until ctx is
// cancelled. Events within the debounce window trigger a single call. The
// parent directory is watched so editors that save by rename keep working.
// An error from onChange is logged and watching continues.
func File(ctx context.Context, path string, opt Options, onChange func() error) error {
	if opt.Debounce <= 0 {
		opt.Debounce = DefaultDebounce
	}
	log := opt.Log
	if log == nil {
		log = logging.Discard()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	entry := log.WithField("path", abs)
	entry.Info("watching for changes")

	timer := time.NewTimer(opt.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(opt.Debounce)

		case <-timer.C:
			if err := onChange(); err != nil {
				entry.WithError(err).Error("reload failed, keeping previous result")
				continue
			}
			entry.Info("reloaded")

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			entry.WithError(err).Error("watcher error")
		}
	}
}
