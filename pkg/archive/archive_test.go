package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/otairec/otairec/pkg/backend"
	"github.com/otairec/otairec/pkg/metrics"
	"github.com/otairec/otairec/pkg/state"
)

const segmentData = "2026-10-15.08:30:00.000001|c|PORT:0x1|A=1\n2026-10-15.08:30:00.000002|C|OTAI_STATUS_SUCCESS|object_id=0x1\n"

func newTestArchiver(t *testing.T, opts Options) (*Archiver, string) {
	t.Helper()
	remote := t.TempDir()
	b, err := backend.NewRclone(context.Background(), backend.Config{Name: "archive", Type: "local", Root: remote})
	if err != nil {
		t.Fatal(err)
	}
	opts.Backend = b
	if opts.Host == "" {
		opts.Host = "lc-1"
	}
	a, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return a, remote
}

func writeSegment(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(segmentData), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestArchiveCompressed(t *testing.T) {
	ledger, err := state.Open("", true)
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()

	a, remote := newTestArchiver(t, Options{Prefix: "recordings", Compress: true, DeleteLocal: true, Ledger: ledger})
	a.Start(context.Background())

	seg := writeSegment(t, t.TempDir(), "rec.log.2026-10-15.08:30:00.000000")
	if !a.Enqueue(seg) {
		t.Fatal("Enqueue rejected")
	}
	a.Close()

	uploaded := filepath.Join(remote, "recordings", "lc-1", "rec.log.2026-10-15.08:30:00.000000.zst")
	compressed, err := os.ReadFile(uploaded)
	if err != nil {
		t.Fatalf("uploaded segment: %v", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != segmentData {
		t.Errorf("decompressed = %q", plain)
	}

	if _, err := os.Stat(seg); !os.IsNotExist(err) {
		t.Errorf("local segment not deleted: %v", err)
	}
	tmps, _ := filepath.Glob(filepath.Join(filepath.Dir(seg), "*.tmp"))
	if len(tmps) != 0 {
		t.Errorf("temp files left behind: %v", tmps)
	}

	segs, err := ledger.Segments()
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Remote != "recordings/lc-1/rec.log.2026-10-15.08:30:00.000000.zst" || !segs[0].Compressed {
		t.Errorf("ledger = %+v", segs)
	}
}

func TestArchiveUncompressedKeepsLocal(t *testing.T) {
	a, remote := newTestArchiver(t, Options{})
	seg := writeSegment(t, t.TempDir(), "rec.log.1")

	rec, err := a.ArchiveFile(context.Background(), seg)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Remote != "lc-1/rec.log.1" || rec.Size != int64(len(segmentData)) {
		t.Errorf("segment = %+v", rec)
	}
	got, err := os.ReadFile(filepath.Join(remote, "lc-1", "rec.log.1"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte(segmentData)) {
		t.Errorf("uploaded content = %q", got)
	}
	if _, err := os.Stat(seg); err != nil {
		t.Errorf("local segment removed without delete_local: %v", err)
	}
}

func TestArchiveNameCollision(t *testing.T) {
	a, remote := newTestArchiver(t, Options{Compress: true})
	dir := t.TempDir()
	seg := writeSegment(t, dir, "rec.log.1")

	first, err := a.ArchiveFile(context.Background(), seg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.ArchiveFile(context.Background(), seg)
	if err != nil {
		t.Fatal(err)
	}
	if first.Remote == second.Remote {
		t.Fatalf("second upload overwrote %s", first.Remote)
	}
	if !strings.HasPrefix(second.Remote, "lc-1/rec.log.1.") || !strings.HasSuffix(second.Remote, ".zst") {
		t.Errorf("collision name = %s", second.Remote)
	}
	entries, _ := os.ReadDir(filepath.Join(remote, "lc-1"))
	if len(entries) != 2 {
		t.Errorf("remote has %d objects, want 2", len(entries))
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	a, remote := newTestArchiver(t, Options{Keep: 2})
	dir := t.TempDir()
	for _, name := range []string{"rec.log.2026-10-15.01", "rec.log.2026-10-15.02", "rec.log.2026-10-15.03"} {
		if _, err := a.ArchiveFile(context.Background(), writeSegment(t, dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(remote, "lc-1"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "rec.log.2026-10-15.02,rec.log.2026-10-15.03" {
		t.Errorf("remote after prune = %v", names)
	}
}

func TestEnqueueFullQueue(t *testing.T) {
	a, _ := newTestArchiver(t, Options{QueueSize: 1})
	if !a.Enqueue("one") {
		t.Fatal("first Enqueue rejected")
	}
	if a.Enqueue("two") {
		t.Error("Enqueue on a full queue should not block or succeed")
	}
	a.Close()
}

func TestEnqueueAfterClose(t *testing.T) {
	a, _ := newTestArchiver(t, Options{})
	a.Close()
	a.Close()

	dropped := metrics.ArchiveUploads.WithLabelValues("dropped")
	before := testutil.ToFloat64(dropped)
	if a.Enqueue(filepath.Join(t.TempDir(), "rec.log.late")) {
		t.Error("Enqueue after Close accepted the segment")
	}
	if got := testutil.ToFloat64(dropped) - before; got != 1 {
		t.Errorf("dropped segments = %v, want 1", got)
	}
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without a backend")
	}
	b, _ := backend.NewRclone(context.Background(), backend.Config{Name: "x", Type: "local", Root: t.TempDir()})
	if _, err := New(Options{Backend: b, Host: "h", Level: "turbo"}); err == nil {
		t.Error("expected error for unknown zstd level")
	}
}
