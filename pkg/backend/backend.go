// Package backend stores archived recording segments on an rclone remote.
package backend

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a segment or directory does not exist.
var ErrNotFound = errors.New("not found")

// Object is one remote entry. Name is relative to the listed directory
// for List and the full remote name for Stat.
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
	Hash    string // hex digest in the remote's preferred hash, empty if none
	Dir     bool
}

// Config names an rclone remote. Params are rclone options for Type,
// e.g. "provider" and "region" for s3.
type Config struct {
	Name   string
	Type   string // local, s3, azureblob, googlecloudstorage, sftp
	Root   string // bucket, container or directory segments live under
	Params map[string]string
}

// Backend is the remote store rotated segments are archived to.
type Backend interface {
	Name() string

	// List returns the direct children of dir.
	List(ctx context.Context, dir string) ([]Object, error)
	Stat(ctx context.Context, name string) (Object, error)

	// Put uploads size bytes from r as name, replacing any existing object.
	Put(ctx context.Context, name string, r io.Reader, size int64, modTime time.Time) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error

	Close() error
}
