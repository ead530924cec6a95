package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Target defaults applied by the service layer.
const (
	DefaultDirectory = "."
	DefaultFilename  = "otairedis.rec"
)

var (
	// ErrInvalidDirectory is returned when an output directory does not
	// exist or is not a directory.
	ErrInvalidDirectory = errors.New("invalid recording directory")
	// ErrInvalidFilename is returned for empty names, names containing a
	// path separator, and "." or "..".
	ErrInvalidFilename = errors.New("invalid recording filename")
)

// ValidateDirectory checks that dir exists and is a directory.
func ValidateDirectory(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidDirectory)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDirectory, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, dir)
	}
	return nil
}

// ValidateFilename checks that name can be joined to a directory without
// escaping it.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidFilename)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, name)
	}
	return nil
}

// derivePath joins the stored directory and file name. No file name means
// no target.
func derivePath(dir, name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// SetOutputDirectory replaces the output directory if dir exists and is a
// directory. An open file keeps being written until the next open.
func (r *Recorder) SetOutputDirectory(dir string) bool {
	if err := ValidateDirectory(dir); err != nil {
		r.log.Warn("rejected output directory", "directory", dir, "error", err)
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dir = dir
	r.path = derivePath(r.dir, r.name)
	r.resetFailedLocked()
	return true
}

// SetFilename replaces the output file name if it is valid.
func (r *Recorder) SetFilename(name string) bool {
	if err := ValidateFilename(name); err != nil {
		r.log.Warn("rejected output filename", "filename", name, "error", err)
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
	r.path = derivePath(r.dir, r.name)
	r.resetFailedLocked()
	return true
}

// Path returns the derived output path the next open will use.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}
