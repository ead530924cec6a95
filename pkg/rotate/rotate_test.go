package rotate

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type fakeTarget struct {
	mu       sync.Mutex
	path     string
	requests atomic.Int32
}

func (f *fakeTarget) RequestLogRotate() { f.requests.Add(1) }

func (f *fakeTarget) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

func (f *fakeTarget) setPath(p string) {
	f.mu.Lock()
	f.path = p
	f.mu.Unlock()
}

func waitForRequests(t *testing.T, f *fakeTarget, want int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if f.requests.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("got %d rotation requests, want %d", f.requests.Load(), want)
}

func TestHandleSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeTarget{}
	HandleSignals(ctx, f, syscall.SIGUSR1)
	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}
	waitForRequests(t, f, 1)
}

func TestNewSchedulerInvalid(t *testing.T) {
	_, err := NewScheduler("every tuesday", &fakeTarget{})
	if err == nil || !strings.Contains(err.Error(), "invalid schedule") {
		t.Errorf("NewScheduler err = %v", err)
	}
}

func TestSchedulerFires(t *testing.T) {
	f := &fakeTarget{}
	s, err := NewScheduler("@every 1s", f)
	if err != nil {
		t.Fatal(err)
	}
	if !s.NextRun().IsZero() {
		t.Error("NextRun before Start should be zero")
	}
	s.Start()
	s.Start()
	if s.NextRun().IsZero() {
		t.Error("NextRun after Start should be set")
	}
	waitForRequests(t, f, 1)
	s.Stop()
	s.Stop()
	if !s.NextRun().IsZero() {
		t.Error("NextRun after Stop should be zero")
	}
}

func newWatchedFile(t *testing.T) (*fakeTarget, *Watcher) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "rec.log")
	if err := os.WriteFile(p, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := &fakeTarget{path: p}
	w, err := NewWatcher(f, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return f, w
}

func TestWatcherExternalMove(t *testing.T) {
	f, w := newWatchedFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.Rename(f.path, f.path+".1"); err != nil {
		t.Fatal(err)
	}
	waitForRequests(t, f, 1)
}

func TestWatcherIgnoresReopenedPath(t *testing.T) {
	f, w := newWatchedFile(t)
	w.handle(fsnotify.Event{Name: f.path, Op: fsnotify.Rename})
	if n := f.requests.Load(); n != 0 {
		t.Errorf("rename of a path that still exists requested %d rotations", n)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	f, w := newWatchedFile(t)
	w.handle(fsnotify.Event{Name: f.path + ".2026-10-15.08:30:00.000000", Op: fsnotify.Remove})
	if n := f.requests.Load(); n != 0 {
		t.Errorf("unrelated remove requested %d rotations", n)
	}
}

func TestWatcherSizeLimit(t *testing.T) {
	f, w := newWatchedFile(t)
	w.maxSize = 16

	w.handle(fsnotify.Event{Name: f.path, Op: fsnotify.Write})
	if n := f.requests.Load(); n != 0 {
		t.Fatalf("small file requested %d rotations", n)
	}

	if err := os.WriteFile(f.path, []byte(strings.Repeat("y", 32)), 0o644); err != nil {
		t.Fatal(err)
	}
	w.handle(fsnotify.Event{Name: f.path, Op: fsnotify.Write})
	if n := f.requests.Load(); n != 1 {
		t.Errorf("oversized file requested %d rotations, want 1", n)
	}
}

func TestWatcherFollowsDirectoryChange(t *testing.T) {
	f, w := newWatchedFile(t)
	oldDir := filepath.Dir(f.path)
	w.interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	newDir := t.TempDir()
	newPath := filepath.Join(newDir, "rec.log")
	if err := os.WriteFile(newPath, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.setPath(newPath)

	deadline := time.Now().Add(3 * time.Second)
	for !slices.Contains(w.fsw.WatchList(), newDir) {
		if time.Now().After(deadline) {
			t.Fatalf("watch list %v never picked up %s", w.fsw.WatchList(), newDir)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if slices.Contains(w.fsw.WatchList(), oldDir) {
		t.Errorf("old directory %s still watched", oldDir)
	}

	if err := os.Rename(newPath, newPath+".1"); err != nil {
		t.Fatal(err)
	}
	waitForRequests(t, f, 1)
}

func TestWatcherKeepsWatchWhenNewDirMissing(t *testing.T) {
	f, w := newWatchedFile(t)
	oldDir := w.dir
	f.setPath(filepath.Join(t.TempDir(), "gone", "rec.log"))
	w.follow(f.Path())
	if w.dir != oldDir || !slices.Contains(w.fsw.WatchList(), oldDir) {
		t.Errorf("watch moved off %s to unwatchable %s", oldDir, w.dir)
	}
}

func TestNewWatcherNeedsPath(t *testing.T) {
	if _, err := NewWatcher(&fakeTarget{}, 0); err == nil {
		t.Error("expected error for empty path")
	}
}
