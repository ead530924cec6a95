// Package inspect reads recording files back and checks them.
//
// Scan parses every line with the recorder's grammar, counts lines per
// tag and tracks request/response pairing per operation family. Lines
// of concurrent callers interleave, so pairing is checked by count: a
// response is an orphan when no request of its family is outstanding.
package inspect

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/otairec/otairec/pkg/recorder"
)

// maxLineSize bounds a single recorded line. Bulk calls with many
// objects produce long lines.
const maxLineSize = 64 << 20

// LineError is a problem found at a line.
type LineError struct {
	File string
	Line int
	Err  string
}

func (e LineError) String() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Err)
}

// Report summarizes one or more recording files.
type Report struct {
	Lines       int
	Tags        map[recorder.Tag]int
	First, Last time.Time

	Malformed  []LineError
	Orphans    []LineError
	Backwards  []LineError
	Unanswered map[recorder.Family]int

	outstanding map[recorder.Family]int
}

// NewReport returns an empty report ready for Scan.
func NewReport() *Report {
	return &Report{
		Tags:        make(map[recorder.Tag]int),
		Unanswered:  make(map[recorder.Family]int),
		outstanding: make(map[recorder.Family]int),
	}
}

// OK reports whether the scanned files parsed cleanly and every response
// had a request before it. Unanswered requests are allowed; a recording
// may end mid-call.
func (r *Report) OK() bool {
	return len(r.Malformed) == 0 && len(r.Orphans) == 0
}

// SortedTags returns the tags seen, in lexical order.
func (r *Report) SortedTags() []recorder.Tag {
	out := make([]recorder.Tag, 0, len(r.Tags))
	for t := range r.Tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Scan reads lines from rd, attributing problems to name. Calling Scan
// for consecutive segments of one recording carries outstanding requests
// across segment boundaries.
func (r *Report) Scan(name string, rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for sc.Scan() {
		n++
		r.Lines++
		e, err := recorder.ParseLine(sc.Text())
		if err != nil {
			r.Malformed = append(r.Malformed, LineError{name, n, err.Error()})
			continue
		}
		r.Tags[e.Tag]++
		r.observeTime(name, n, e.Timestamp)
		r.pair(name, n, e.Tag)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("inspect.Scan: %s: %w", name, err)
	}
	r.Unanswered = make(map[recorder.Family]int)
	for f, c := range r.outstanding {
		if c > 0 {
			r.Unanswered[f] = c
		}
	}
	return nil
}

func (r *Report) observeTime(name string, n int, ts string) {
	t, err := recorder.ParseTimestamp(ts)
	if err != nil {
		r.Malformed = append(r.Malformed, LineError{name, n, err.Error()})
		return
	}
	if !r.Last.IsZero() && t.Before(r.Last) {
		r.Backwards = append(r.Backwards, LineError{name, n, fmt.Sprintf("timestamp %s before %s", ts, recorder.Timestamp(r.Last))})
	}
	if r.First.IsZero() {
		r.First = t
	}
	r.Last = t
}

func (r *Report) pair(name string, n int, tag recorder.Tag) {
	f := tag.Family()
	if f.ResponseTag() == "" {
		return
	}
	if !tag.IsResponse() {
		r.outstanding[f]++
		return
	}
	if r.outstanding[f] == 0 {
		r.Orphans = append(r.Orphans, LineError{name, n, fmt.Sprintf("%s response without a %s request", tag, f.RequestTag())})
		return
	}
	r.outstanding[f]--
}

// ScanFile opens path and scans it, decompressing .zst segments.
func (r *Report) ScanFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("inspect.ScanFile: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		return r.Scan(path, f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("inspect.ScanFile: %s: %w", path, err)
	}
	defer dec.Close()
	return r.Scan(path, dec)
}
