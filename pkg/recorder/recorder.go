// Package recorder appends every OTAI request and response issued by the
// control-plane client to a newline-delimited log that a replay tool can
// reissue call for call.
//
// A Recorder is safe for concurrent use. All recording operations, control
// setters and the open file handle share one mutex, so lines appear in the
// order their record calls acquired it. Recording never returns an error
// to the caller: I/O failures suspend recording until an operator resets
// it, and are visible only through logs and metrics.
package recorder

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/otairec/otairec/pkg/metrics"
)

// Options configures a Recorder.
type Options struct {
	// Sync fsyncs after every line.
	Sync bool
	// RenameOnRotate moves the active file to "<path>.<timestamp>" before
	// reopening. Leave false when an external logrotate moves the file.
	RenameOnRotate bool
	// AlarmNotifications lists notification names treated as alarms. When
	// empty, any name containing "alarm" (case-insensitive) is an alarm.
	AlarmNotifications []string
	// OnRotate receives the path of each renamed segment. It is called
	// with the recorder locked and must not block or call back into the
	// Recorder.
	OnRotate func(segment string)
	// Clock overrides time.Now for line timestamps and segment names.
	Clock func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Recorder is one recording session.
type Recorder struct {
	opts   Options
	now    func() time.Time
	log    *slog.Logger
	alarms map[string]struct{}

	// enabled mirrors on so disabled record calls skip formatting. The
	// authoritative check happens under mu.
	enabled atomic.Bool

	mu            sync.Mutex
	on            bool
	recordStats   bool
	recordAlarms  bool
	dir           string
	name          string
	path          string
	openPath      string
	file          *os.File
	state         State
	rotatePending bool
}

// New returns a disabled Recorder with no output target.
func New(opts Options) *Recorder {
	r := &Recorder{
		opts:         opts,
		now:          opts.Clock,
		log:          opts.Logger,
		recordStats:  true,
		recordAlarms: true,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "recorder")
	if len(opts.AlarmNotifications) > 0 {
		r.alarms = make(map[string]struct{}, len(opts.AlarmNotifications))
		for _, n := range opts.AlarmNotifications {
			r.alarms[n] = struct{}{}
		}
	}
	return r
}

// Enable turns recording on or off. Disabling syncs and closes the open
// file; enabling opens it lazily on the next record. Either way a failed
// writer is reset.
func (r *Recorder) Enable(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.on = enabled
	r.enabled.Store(enabled)
	r.resetFailedLocked()
	if enabled {
		metrics.RecordingEnabled.Set(1)
		return
	}
	metrics.RecordingEnabled.Set(0)
	if err := r.closeLocked(); err != nil {
		r.log.Warn("closing recording file", "path", r.openPath, "error", err)
	}
}

// RecordStats controls whether get_stats and clear_stats calls are recorded.
func (r *Recorder) RecordStats(enable bool) {
	r.mu.Lock()
	r.recordStats = enable
	r.mu.Unlock()
}

// RecordAlarms controls whether alarm-class notifications are recorded.
func (r *Recorder) RecordAlarms(enable bool) {
	r.mu.Lock()
	r.recordAlarms = enable
	r.mu.Unlock()
}

// SetOnRotate replaces the rotate hook. A nil hook leaves renamed
// segments on disk.
func (r *Recorder) SetOnRotate(fn func(segment string)) {
	r.mu.Lock()
	r.opts.OnRotate = fn
	r.mu.Unlock()
}

// RequestLogRotate asks the next write to reopen the output file. It also
// resets a failed writer.
func (r *Recorder) RequestLogRotate() {
	r.mu.Lock()
	r.rotatePending = true
	r.resetFailedLocked()
	r.mu.Unlock()
}

// Record appends c if recording is enabled and no filter suppresses it.
// It reports whether a line was written.
func (r *Recorder) Record(c Call) bool {
	if !r.enabled.Load() {
		metrics.SuppressedRecords.WithLabelValues("disabled").Inc()
		return false
	}
	body := c.body()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.admitLocked(c) {
		return false
	}
	return r.writeLocked(c.Tag, body)
}

// Pending pairs a recorded request with its response.
type Pending struct {
	r        *Recorder
	recorded bool
}

// Recorded reports whether the request line was written.
func (p Pending) Recorded() bool { return p.recorded }

// Begin records a request and returns a token for its response.
func (r *Recorder) Begin(req Call) Pending {
	return Pending{r: r, recorded: r.Record(req)}
}

// Complete records resp only if the request was recorded. Filters are not
// consulted again, so toggling them between the two lines cannot orphan a
// response; disabling recording still suppresses it.
func (p Pending) Complete(resp Call) bool {
	if !p.recorded || p.r == nil {
		return false
	}
	r := p.r
	if !r.enabled.Load() {
		metrics.SuppressedRecords.WithLabelValues("disabled").Inc()
		return false
	}
	body := resp.body()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.on {
		metrics.SuppressedRecords.WithLabelValues("disabled").Inc()
		return false
	}
	return r.writeLocked(resp.Tag, body)
}

func (r *Recorder) admitLocked(c Call) bool {
	if !r.on {
		metrics.SuppressedRecords.WithLabelValues("disabled").Inc()
		return false
	}
	if !r.recordStats && c.Tag.Family().IsStats() {
		metrics.SuppressedRecords.WithLabelValues("stats").Inc()
		return false
	}
	if !r.recordAlarms && c.Tag == TagNotification && r.isAlarm(c.Key) {
		metrics.SuppressedRecords.WithLabelValues("alarms").Inc()
		return false
	}
	return true
}

func (r *Recorder) isAlarm(name string) bool {
	if r.alarms != nil {
		_, ok := r.alarms[name]
		return ok
	}
	return strings.Contains(strings.ToLower(name), "alarm")
}

// Close disables recording and closes the output file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.on = false
	r.enabled.Store(false)
	metrics.RecordingEnabled.Set(0)
	return r.closeLocked()
}
