package recorder

import (
	"os"
	"strconv"
	"time"

	"github.com/otairec/otairec/pkg/metrics"
)

// State is the writer state. All transitions happen under Recorder.mu.
//
//	closed --first enabled write--> open --rotate--> open
//	any    --disable / Close-----> closed
//	closed --open error----------> failed --reset--> closed
type State int

const (
	StateClosed State = iota
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// writeLocked appends one line. The caller holds r.mu and has already
// decided the record is admitted.
func (r *Recorder) writeLocked(tag Tag, body string) bool {
	if r.state == StateFailed {
		metrics.SuppressedRecords.WithLabelValues("failed").Inc()
		return false
	}
	if r.rotatePending {
		r.rotatePending = false
		r.rotateLocked()
	}
	if r.file == nil && !r.openLocked() {
		metrics.SuppressedRecords.WithLabelValues("failed").Inc()
		return false
	}

	line := Timestamp(r.now()) + "|" + body + "\n"
	start := time.Now()
	n, err := r.file.WriteString(line)
	if err == nil && r.opts.Sync {
		err = r.file.Sync()
	}
	if err != nil {
		metrics.WriteErrors.Inc()
		r.log.Error("recording write failed, recording suspended", "path", r.openPath, "error", err)
		r.file.Close()
		r.file = nil
		r.state = StateFailed
		return false
	}
	metrics.WriteLatency.Observe(time.Since(start).Seconds())
	metrics.RecordedLines.WithLabelValues(string(tag)).Inc()
	metrics.RecordedBytes.Add(float64(n))
	return true
}

// openLocked opens the derived path for appending.
func (r *Recorder) openLocked() bool {
	f, err := openAppend(r.path)
	if err != nil {
		metrics.OpenFailures.Inc()
		r.log.Error("cannot open recording file, recording suspended", "path", r.path, "error", err)
		r.state = StateFailed
		return false
	}
	r.file = f
	r.openPath = r.path
	r.state = StateOpen
	r.log.Info("recording to file", "path", r.path)
	return true
}

// rotateLocked swaps the open handle for a fresh one at the derived path.
// On any failure the previous handle stays open.
func (r *Recorder) rotateLocked() {
	if r.file == nil {
		return
	}

	var segment string
	if r.opts.RenameOnRotate {
		if _, err := os.Stat(r.openPath); err == nil {
			segment = freeSegmentName(r.openPath + "." + Timestamp(r.now()))
			if err := os.Rename(r.openPath, segment); err != nil {
				metrics.Rotations.WithLabelValues("failure").Inc()
				r.log.Warn("rotate: rename failed, keeping current file", "path", r.openPath, "error", err)
				return
			}
		}
	}

	f, err := openAppend(r.path)
	if err != nil {
		metrics.Rotations.WithLabelValues("failure").Inc()
		r.log.Warn("rotate: open failed, keeping current file", "path", r.path, "error", err)
		return
	}

	old := r.file
	old.Sync()
	if err := old.Close(); err != nil {
		r.log.Warn("rotate: closing previous file", "path", r.openPath, "error", err)
	}
	r.file = f
	r.openPath = r.path
	metrics.Rotations.WithLabelValues("success").Inc()
	r.log.Info("recording file rotated", "path", r.path, "segment", segment)

	if segment != "" && r.opts.OnRotate != nil {
		r.opts.OnRotate(segment)
	}
}

// freeSegmentName returns base, or base with the first ".N" suffix that
// names no existing file. Rename would replace an existing segment.
func freeSegmentName(base string) string {
	name := base
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); os.IsNotExist(err) {
			return name
		}
		name = base + "." + strconv.Itoa(i)
	}
}

func (r *Recorder) closeLocked() error {
	r.state = StateClosed
	if r.file == nil {
		return nil
	}
	f := r.file
	r.file = nil
	f.Sync()
	return f.Close()
}

func (r *Recorder) resetFailedLocked() {
	if r.state == StateFailed {
		r.state = StateClosed
	}
}
