package control

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/otairec/otairec/pkg/backend"
)

// RemoteSegment is one object found under the archive directory.
type RemoteSegment struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Hash    string    `json:"hash,omitempty"`
}

// listRemote walks dir on b and returns every object beneath it, sorted
// by path. A missing directory yields an empty list.
func listRemote(ctx context.Context, b backend.Backend, dir string) ([]RemoteSegment, error) {
	out := []RemoteSegment{}
	if err := walkRemote(ctx, b, dir, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func walkRemote(ctx context.Context, b backend.Backend, prefix string, out *[]RemoteSegment) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	objects, err := b.List(ctx, prefix)
	if errors.Is(err, backend.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, obj := range objects {
		p := path.Join(prefix, obj.Name)
		if obj.Dir {
			if err := walkRemote(ctx, b, p, out); err != nil {
				slog.Warn("listing archive subdirectory", "component", "control", "path", p, "error", err)
			}
			continue
		}
		*out = append(*out, RemoteSegment{Path: p, Size: obj.Size, ModTime: obj.ModTime, Hash: obj.Hash})
	}
	return nil
}
