// Package archive compresses rotated recording segments and uploads them
// to a remote backend.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/otairec/otairec/pkg/backend"
	"github.com/otairec/otairec/pkg/metrics"
	"github.com/otairec/otairec/pkg/state"
)

// Ledger records archived segments. *state.Store implements it.
type Ledger interface {
	PutSegment(seg state.Segment) error
}

// Options configures an Archiver.
type Options struct {
	Backend     backend.Backend
	Prefix      string
	Host        string // defaults to os.Hostname()
	Compress    bool
	Level       string // zstd level name: fastest, default, better, best
	DeleteLocal bool
	QueueSize   int
	Timeout     time.Duration // per segment
	Keep        int           // newest remote segments to keep; 0 keeps all
	Ledger      Ledger
}

// Archiver uploads segments handed to Enqueue from a single background
// worker. Failures are logged and counted; they never reach the recorder.
type Archiver struct {
	opts  Options
	level zstd.EncoderLevel
	queue chan string

	// mu guards closed and sends on queue.
	mu     sync.Mutex
	closed bool

	startOnce sync.Once
	done      chan struct{}
}

// New validates opts and returns an idle Archiver. Call Start to begin
// processing the queue.
func New(opts Options) (*Archiver, error) {
	if opts.Backend == nil {
		return nil, errors.New("archive.New: backend is required")
	}
	if opts.Host == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("archive.New: hostname: %w", err)
		}
		opts.Host = h
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	level := zstd.SpeedDefault
	if opts.Level != "" {
		ok, l := zstd.EncoderLevelFromString(opts.Level)
		if !ok {
			return nil, fmt.Errorf("archive.New: unknown zstd level %q", opts.Level)
		}
		level = l
	}
	return &Archiver{
		opts:  opts,
		level: level,
		queue: make(chan string, opts.QueueSize),
		done:  make(chan struct{}),
	}, nil
}

// Enqueue schedules segment for upload without blocking. It is safe to
// call from the recorder's rotate hook, also after Close. A full or
// closed queue drops the segment, leaving it on local disk.
func (a *Archiver) Enqueue(segment string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		metrics.ArchiveUploads.WithLabelValues("dropped").Inc()
		slog.Warn("archiver closed, segment left on disk", "component", "archive", "segment", segment)
		return false
	}
	metrics.ArchiveQueueDepth.Inc()
	select {
	case a.queue <- segment:
		return true
	default:
		metrics.ArchiveQueueDepth.Dec()
		metrics.ArchiveUploads.WithLabelValues("dropped").Inc()
		slog.Warn("archive queue full, segment left on disk", "component", "archive", "segment", segment)
		return false
	}
}

// Start launches the worker. It returns once ctx is cancelled or Close
// has drained the queue.
func (a *Archiver) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		go a.run(ctx)
	})
}

// Close stops accepting segments and waits for queued ones to finish.
func (a *Archiver) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	a.Start(context.Background())
	<-a.done
}

func (a *Archiver) run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case seg, ok := <-a.queue:
			if !ok {
				return
			}
			metrics.ArchiveQueueDepth.Dec()
			segCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
			if _, err := a.ArchiveFile(segCtx, seg); err != nil {
				slog.Error("archive failed", "component", "archive", "segment", seg, "error", err)
			}
			cancel()
		}
	}
}

// ArchiveFile uploads one segment synchronously and returns its record.
func (a *Archiver) ArchiveFile(ctx context.Context, segment string) (state.Segment, error) {
	seg, err := a.archive(ctx, segment)
	if err != nil {
		metrics.ArchiveUploads.WithLabelValues("failure").Inc()
		return state.Segment{}, err
	}
	metrics.ArchiveUploads.WithLabelValues("success").Inc()
	metrics.ArchiveBytes.Add(float64(seg.Size))
	slog.Info("segment archived", "component", "archive", "segment", segment, "remote", seg.Remote, "bytes", seg.Size)

	if a.opts.Ledger != nil {
		if err := a.opts.Ledger.PutSegment(seg); err != nil {
			slog.Warn("recording archived segment", "component", "archive", "remote", seg.Remote, "error", err)
		}
	}
	if a.opts.DeleteLocal {
		if err := os.Remove(segment); err != nil {
			slog.Warn("removing archived segment", "component", "archive", "segment", segment, "error", err)
		}
	}
	if a.opts.Keep > 0 {
		if err := a.Prune(ctx); err != nil {
			slog.Warn("pruning archive", "component", "archive", "error", err)
		}
	}
	return seg, nil
}

func (a *Archiver) archive(ctx context.Context, segment string) (state.Segment, error) {
	src, err := os.Open(segment)
	if err != nil {
		return state.Segment{}, fmt.Errorf("archive: open %s: %w", segment, err)
	}
	defer src.Close()
	sfi, err := src.Stat()
	if err != nil {
		return state.Segment{}, fmt.Errorf("archive: stat %s: %w", segment, err)
	}

	upload := src
	if a.opts.Compress {
		tmp, err := a.compress(src, segment)
		if err != nil {
			return state.Segment{}, err
		}
		defer os.Remove(tmp.Name())
		defer tmp.Close()
		upload = tmp
	}
	fi, err := upload.Stat()
	if err != nil {
		return state.Segment{}, fmt.Errorf("archive: stat %s: %w", upload.Name(), err)
	}

	remote, err := a.remoteName(ctx, filepath.Base(segment))
	if err != nil {
		return state.Segment{}, err
	}
	if err := a.opts.Backend.Put(ctx, remote, upload, fi.Size(), sfi.ModTime()); err != nil {
		return state.Segment{}, fmt.Errorf("archive: %w", err)
	}
	return state.Segment{
		Local:      segment,
		Remote:     remote,
		Size:       fi.Size(),
		Compressed: a.opts.Compress,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// compress writes a zstd copy of src next to segment and rewinds it.
func (a *Archiver) compress(src io.Reader, segment string) (*os.File, error) {
	tmp, err := os.CreateTemp(filepath.Dir(segment), filepath.Base(segment)+".*.zst.tmp")
	if err != nil {
		return nil, fmt.Errorf("archive: temp file: %w", err)
	}
	fail := func(err error) (*os.File, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(a.level))
	if err != nil {
		return fail(fmt.Errorf("archive: zstd: %w", err))
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fail(fmt.Errorf("archive: compress %s: %w", segment, err))
	}
	if err := enc.Close(); err != nil {
		return fail(fmt.Errorf("archive: compress %s: %w", segment, err))
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fail(fmt.Errorf("archive: rewind: %w", err))
	}
	return tmp, nil
}

// Dir returns the remote directory segments from this host go to.
func (a *Archiver) Dir() string {
	return path.Join(a.opts.Prefix, a.opts.Host)
}

// remoteName picks "<prefix>/<host>/<base>[.zst]", adding a random
// suffix if that name is already taken.
func (a *Archiver) remoteName(ctx context.Context, base string) (string, error) {
	ext := ""
	if a.opts.Compress {
		ext = ".zst"
	}
	name := path.Join(a.Dir(), base+ext)
	_, err := a.opts.Backend.Stat(ctx, name)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return name, nil
	case err != nil:
		return "", fmt.Errorf("archive: %w", err)
	}
	return path.Join(a.Dir(), base+"."+uuid.NewString()[:8]+ext), nil
}

// Prune deletes the oldest remote segments of this host beyond Keep.
// Segment names embed a sortable timestamp, so name order is age order.
func (a *Archiver) Prune(ctx context.Context) error {
	if a.opts.Keep <= 0 {
		return nil
	}
	entries, err := a.opts.Backend.List(ctx, a.Dir())
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("archive.Prune: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.Dir && !strings.HasSuffix(e.Name, ".tmp") {
			names = append(names, e.Name)
		}
	}
	if len(names) <= a.opts.Keep {
		return nil
	}
	sort.Strings(names)
	var errs []error
	for _, n := range names[:len(names)-a.opts.Keep] {
		if err := a.opts.Backend.Delete(ctx, path.Join(a.Dir(), n)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("archive.Prune: %w", errors.Join(errs...))
	}
	return nil
}
