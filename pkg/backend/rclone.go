package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	_ "github.com/rclone/rclone/backend/azureblob"
	_ "github.com/rclone/rclone/backend/googlecloudstorage"
	_ "github.com/rclone/rclone/backend/local"
	_ "github.com/rclone/rclone/backend/s3"
	_ "github.com/rclone/rclone/backend/sftp"

	"github.com/rclone/rclone/fs"
	"github.com/rclone/rclone/fs/config/configmap"
	"github.com/rclone/rclone/fs/hash"
	"github.com/rclone/rclone/fs/object"

	"github.com/otairec/otairec/pkg/metrics"
)

// Rclone is a Backend on any registered rclone remote type.
type Rclone struct {
	name string
	f    fs.Fs
	ht   hash.Type
}

// NewRclone opens the remote described by cfg.
func NewRclone(ctx context.Context, cfg Config) (*Rclone, error) {
	info, err := fs.Find(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("backend.NewRclone: unknown type %q: %w", cfg.Type, err)
	}
	f, err := info.NewFs(ctx, cfg.Name, cfg.Root, configmap.Simple(cfg.Params))
	if err != nil {
		return nil, fmt.Errorf("backend.NewRclone: %s (%s): %w", cfg.Name, cfg.Type, err)
	}
	b := &Rclone{name: cfg.Name, f: f, ht: f.Hashes().GetOne()}
	slog.Info("archive backend opened", "component", "backend",
		"name", cfg.Name, "type", cfg.Type, "root", cfg.Root, "hash", b.ht.String())
	return b, nil
}

func (b *Rclone) Name() string { return b.name }

// observe records the duration of op and maps rclone's not-found errors
// to ErrNotFound.
func (b *Rclone) observe(op, name string, start time.Time, err error) error {
	metrics.BackendRequestDuration.WithLabelValues(b.name, op).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrorObjectNotFound) || errors.Is(err, fs.ErrorDirNotFound) {
		return fmt.Errorf("backend %s: %s %q: %w", b.name, op, name, ErrNotFound)
	}
	metrics.BackendErrors.WithLabelValues(b.name, op).Inc()
	return fmt.Errorf("backend %s: %s %q: %w", b.name, op, name, err)
}

func (b *Rclone) List(ctx context.Context, dir string) ([]Object, error) {
	start := time.Now()
	entries, err := b.f.List(ctx, dir)
	if err := b.observe("list", dir, start, err); err != nil {
		return nil, err
	}
	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		switch e := e.(type) {
		case fs.Object:
			o := b.object(ctx, e)
			o.Name = path.Base(e.Remote())
			out = append(out, o)
		case fs.Directory:
			out = append(out, Object{Name: path.Base(e.Remote()), ModTime: e.ModTime(ctx), Dir: true})
		}
	}
	return out, nil
}

func (b *Rclone) Stat(ctx context.Context, name string) (Object, error) {
	start := time.Now()
	o, err := b.f.NewObject(ctx, name)
	if errors.Is(err, fs.ErrorIsDir) || errors.Is(err, fs.ErrorNotAFile) {
		return Object{Name: name, Dir: true}, nil
	}
	if err := b.observe("stat", name, start, err); err != nil {
		return Object{}, err
	}
	return b.object(ctx, o), nil
}

func (b *Rclone) Put(ctx context.Context, name string, r io.Reader, size int64, modTime time.Time) error {
	start := time.Now()
	src := object.NewStaticObjectInfo(name, modTime, size, true, nil, nil)
	_, err := b.f.Put(ctx, r, src)
	return b.observe("put", name, start, err)
}

func (b *Rclone) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	start := time.Now()
	o, err := b.f.NewObject(ctx, name)
	if err := b.observe("open", name, start, err); err != nil {
		return nil, err
	}
	rc, err := o.Open(ctx)
	if err != nil {
		metrics.BackendErrors.WithLabelValues(b.name, "open").Inc()
		return nil, fmt.Errorf("backend %s: open %q: %w", b.name, name, err)
	}
	return rc, nil
}

func (b *Rclone) Delete(ctx context.Context, name string) error {
	start := time.Now()
	o, err := b.f.NewObject(ctx, name)
	if err == nil {
		err = o.Remove(ctx)
	}
	return b.observe("delete", name, start, err)
}

// Close shuts the remote down if its type holds connections.
func (b *Rclone) Close() error {
	if s, ok := b.f.(fs.Shutdowner); ok {
		if err := s.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("backend %s: shutdown: %w", b.name, err)
		}
	}
	slog.Info("archive backend closed", "component", "backend", "name", b.name)
	return nil
}

func (b *Rclone) object(ctx context.Context, o fs.Object) Object {
	obj := Object{Name: o.Remote(), Size: o.Size(), ModTime: o.ModTime(ctx)}
	if b.ht != hash.None {
		if h, err := o.Hash(ctx, b.ht); err == nil {
			obj.Hash = h
		}
	}
	return obj
}
