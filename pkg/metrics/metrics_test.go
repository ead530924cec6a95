package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func resetChecks(t *testing.T) {
	t.Helper()
	checksMu.Lock()
	checks = map[string]Check{}
	checksMu.Unlock()
}

func healthz(t *testing.T) (int, Health) {
	t.Helper()
	w := httptest.NewRecorder()
	HealthzHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var h Health
	if err := json.Unmarshal(w.Body.Bytes(), &h); err != nil {
		t.Fatal(err)
	}
	return w.Code, h
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Check
		wantCode   int
		wantStatus string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"all healthy", map[string]Check{"a": func() error { return nil }}, http.StatusOK, "ok"},
		{"one broken", map[string]Check{
			"a": func() error { return nil },
			"b": func() error { return errors.New("disk gone") },
		}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetChecks(t)
			for name, c := range tt.checks {
				RegisterHealthCheck(name, c)
			}
			code, h := healthz(t)
			if code != tt.wantCode || h.Status != tt.wantStatus {
				t.Errorf("got %d %+v, want %d %s", code, h, tt.wantCode, tt.wantStatus)
			}
			if len(h.Checks) != len(tt.checks) {
				t.Errorf("checks = %+v", h.Checks)
			}
		})
	}
}

func TestRegisterHealthCheckReplaces(t *testing.T) {
	resetChecks(t)
	RegisterHealthCheck("recording_dir", func() error { return errors.New("old directory removed") })
	RegisterHealthCheck("recording_dir", func() error { return nil })

	h := Evaluate()
	if h.Status != "ok" || len(h.Checks) != 1 || h.Checks["recording_dir"] != "ok" {
		t.Errorf("Evaluate = %+v", h)
	}
}

func TestRegisterHealthCheckConcurrent(t *testing.T) {
	resetChecks(t)
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			RegisterHealthCheck("test", func() error { return nil })
			Evaluate()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if h := Evaluate(); h.Status != "ok" || len(h.Checks) != 1 {
		t.Errorf("Evaluate = %+v", h)
	}
}

func TestDirHealthCheck(t *testing.T) {
	dir := t.TempDir()
	if err := DirHealthCheck(dir)(); err != nil {
		t.Fatalf("existing dir: %v", err)
	}
	if err := DirHealthCheck(filepath.Join(dir, "missing"))(); err == nil {
		t.Fatal("expected error for missing dir")
	}
	f := filepath.Join(dir, "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := DirHealthCheck(f)(); err == nil {
		t.Fatal("expected error for regular file")
	}
}

func TestCollectors(t *testing.T) {
	RecordingEnabled.Set(1)
	ArchiveQueueDepth.Set(2)
	RecordedLines.WithLabelValues("g").Inc()
	BackendErrors.WithLabelValues("test-be", "put").Inc()

	if got := testutil.ToFloat64(RecordingEnabled); got != 1 {
		t.Errorf("RecordingEnabled = %v", got)
	}
	if got := testutil.ToFloat64(ArchiveQueueDepth); got != 2 {
		t.Errorf("ArchiveQueueDepth = %v", got)
	}
	if got := testutil.ToFloat64(BackendErrors.WithLabelValues("test-be", "put")); got != 1 {
		t.Errorf("BackendErrors = %v", got)
	}
	if n := testutil.CollectAndCount(SuppressedRecords); n != 4 {
		t.Errorf("seeded suppression reasons = %d, want 4", n)
	}
}

func TestServe(t *testing.T) {
	resetChecks(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, addr) }()

	var body string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(b)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(body, "otairec_rotations_total") {
		t.Errorf("/metrics missing otairec_rotations_total")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
