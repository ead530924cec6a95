package rotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Target is a recorder whose active path can be watched.
type Target interface {
	Requester
	Path() string
}

// Watcher requests a rotation when the recording file is moved or removed
// by another process, or when it grows past MaxSize.
//
// The recorder's own rename-on-rotate also produces a rename event, but
// it reopens the path under the same lock; the watcher only acts when the
// path is actually gone by the time the event is handled.
//
// When the recorder's output directory changes, the watch moves to the
// new directory on the next event or poll.
type Watcher struct {
	t        Target
	maxSize  int64
	fsw      *fsnotify.Watcher
	dir      string
	badDir   string // last directory that could not be watched
	interval time.Duration
	started  atomic.Bool
	done     chan struct{}
}

// NewWatcher watches the directory of t's current path. maxSize of zero
// disables the size trigger.
func NewWatcher(t Target, maxSize int64) (*Watcher, error) {
	p := t.Path()
	if p == "" {
		return nil, errors.New("rotate.NewWatcher: recorder has no output path")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("rotate.NewWatcher: %w", err)
	}
	dir := filepath.Dir(p)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("rotate.NewWatcher: watch %s: %w", dir, err)
	}
	return &Watcher{
		t:        t,
		maxSize:  maxSize,
		fsw:      fsw,
		dir:      dir,
		interval: time.Second,
		done:     make(chan struct{}),
	}, nil
}

// Run processes events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	w.started.Store(true)
	defer close(w.done)
	slog.Info("watching recording directory", "component", "rotate", "dir", w.dir, "max_size", w.maxSize)
	tick := time.NewTicker(w.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			w.follow(w.t.Path())
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "component", "rotate", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := w.t.Path()
	w.follow(path)
	if filepath.Clean(ev.Name) != filepath.Clean(path) {
		return
	}
	switch {
	case ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove):
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			return
		}
		slog.Info("recording file moved away, reopening", "component", "rotate", "path", path, "op", ev.Op.String())
		w.t.RequestLogRotate()
	case ev.Has(fsnotify.Write) && w.maxSize > 0:
		fi, err := os.Stat(path)
		if err != nil || fi.Size() < w.maxSize {
			return
		}
		slog.Info("recording file reached size limit", "component", "rotate", "path", path, "size", fi.Size(), "max_size", w.maxSize)
		w.t.RequestLogRotate()
	}
}

// follow moves the watch to the directory of path if it changed.
func (w *Watcher) follow(path string) {
	if path == "" {
		return
	}
	dir := filepath.Dir(path)
	if dir == w.dir {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		if dir != w.badDir {
			slog.Warn("cannot watch new recording directory", "component", "rotate", "dir", dir, "error", err)
			w.badDir = dir
		}
		return
	}
	if err := w.fsw.Remove(w.dir); err != nil {
		slog.Debug("unwatching old recording directory", "component", "rotate", "dir", w.dir, "error", err)
	}
	slog.Info("recording directory changed, watching new one", "component", "rotate", "old", w.dir, "dir", dir)
	w.dir = dir
	w.badDir = ""
}

// Close stops the watcher and waits for Run to return if it was started.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	if w.started.Load() {
		<-w.done
	}
	return err
}
