package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/otairec/otairec/pkg/config"
	"github.com/otairec/otairec/pkg/otai"
	"github.com/otairec/otairec/pkg/otai/sim"
)

func off() *bool { b := false; return &b }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Recording.Enabled = true
	cfg.Recording.Directory = t.TempDir()
	cfg.Recording.Filename = "rec.log"
	cfg.Rotate.Signal = off()
	cfg.Metrics.Enabled = off()
	cfg.Control.Enabled = off()
	return cfg
}

func TestClientCallsAreRecorded(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	c := svc.Client(sim.New())
	if st := c.Create(context.Background(), otai.ObjectTypePort, 1, []otai.Attribute{{ID: "OTAI_PORT_ATTR_ADMIN_STATE", Value: true}}); st != otai.StatusSuccess {
		t.Fatalf("Create = %v", st)
	}
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Recording.Directory, "rec.log"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "|c|PORT:0x1|OTAI_PORT_ATTR_ADMIN_STATE=true") {
		t.Errorf("request line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "|C|OTAI_STATUS_SUCCESS|object_id=0x1") {
		t.Errorf("response line = %q", lines[1])
	}
	if svc.Session() == "" {
		t.Error("empty session id")
	}
}

func TestStoredSettingsOverrideConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.State.Path = t.TempDir()

	svc, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	other := t.TempDir()
	svc.Recorder().RecordStats(false)
	svc.Recorder().SetOutputDirectory(other)
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}

	svc, err = New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	s := svc.Recorder().Settings()
	if s.RecordStats || s.Directory != other || !s.Enabled {
		t.Errorf("restored settings = %+v", s)
	}
}

func TestRotatedSegmentsAreArchived(t *testing.T) {
	cfg := testConfig(t)
	remote := t.TempDir()
	cfg.Recording.RenameOnRotate = true
	cfg.Archive.Enabled = true
	cfg.Archive.Prefix = "recordings"
	cfg.Archive.DeleteLocal = true
	cfg.Archive.Backend = config.BackendConfig{Name: "archive", Type: "local", Root: remote}
	cfg.State.InMemory = true

	svc, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	c := svc.Client(sim.New())
	c.Create(ctx, otai.ObjectTypeOch, 1, nil)
	svc.Recorder().RequestLogRotate()
	c.Remove(ctx, otai.ObjectTypeOch, 1)

	deadline := time.Now().Add(5 * time.Second)
	var archived, local []string
	for time.Now().Before(deadline) {
		archived, _ = filepath.Glob(filepath.Join(remote, "recordings", "*", "rec.log.*.zst"))
		local, _ = filepath.Glob(filepath.Join(cfg.Recording.Directory, "rec.log.*"))
		if len(archived) > 0 && len(local) == 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(archived) != 1 {
		t.Fatalf("archived segments = %v", archived)
	}
	if len(local) != 0 {
		t.Errorf("local segments left behind: %v", local)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

// A rotation that lands while Close is draining the archiver must not
// reach the closed queue; the segment stays on local disk.
func TestRotateAfterArchiverClosed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Recording.RenameOnRotate = true
	cfg.Archive.Enabled = true
	cfg.Archive.Backend = config.BackendConfig{Name: "archive", Type: "local", Root: t.TempDir()}
	cfg.State.InMemory = true

	svc, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	ctx := context.Background()
	c := svc.Client(sim.New())
	c.Create(ctx, otai.ObjectTypeOch, 1, nil)

	svc.archiver.Close()
	svc.Recorder().RequestLogRotate()
	if st := c.Create(ctx, otai.ObjectTypeOch, 2, nil); st != otai.StatusSuccess {
		t.Fatalf("Create after archiver close = %v", st)
	}

	local, _ := filepath.Glob(filepath.Join(cfg.Recording.Directory, "rec.log.*"))
	if len(local) != 1 {
		t.Errorf("local segments = %v, want the rotated one kept", local)
	}

	if err := svc.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestNewRejectsBadBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Recording.RenameOnRotate = true
	cfg.Archive.Enabled = true
	cfg.Archive.Backend = config.BackendConfig{Name: "archive", Type: "no-such-remote"}
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown backend type")
	}
}

func TestRunInvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rotate.Schedule = "whenever"
	svc, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	if err := svc.Run(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
