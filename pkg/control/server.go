package control

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/otairec/otairec/pkg/backend"
	"github.com/otairec/otairec/pkg/recorder"
	"github.com/otairec/otairec/pkg/state"
)

// Config configures the control API server.
type Config struct {
	Addr string `yaml:"addr"`
	// AuditSize bounds the in-memory audit log. Zero means 256.
	AuditSize int `yaml:"audit_size"`
}

// Store persists operator settings and lists archived segments.
// *state.Store implements it.
type Store interface {
	SaveSettings(s recorder.Settings) error
	Segments() ([]state.Segment, error)
}

// Server is the operator-facing REST API for a Recorder.
type Server struct {
	rec     *recorder.Recorder
	store   Store
	remote  backend.Backend
	dir     string
	cfg     Config
	audit   *AuditLog
	httpSrv *http.Server
}

// NewServer creates a control server for rec. store may be nil, in which
// case changes are not persisted.
func NewServer(cfg Config, rec *recorder.Recorder, store Store) *Server {
	return &Server{rec: rec, store: store, cfg: cfg, audit: NewAuditLog(cfg.AuditSize)}
}

// Audit returns the log of operator changes made through the API.
func (s *Server) Audit() *AuditLog {
	return s.audit
}

// SetArchive exposes the remote archive directory dir on b through
// GET /api/v1/archive.
func (s *Server) SetArchive(b backend.Backend, dir string) {
	s.remote = b
	s.dir = dir
}

// Handler returns the API routes on a fresh mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterAPIRoutes(mux)
	return mux
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = "127.0.0.1:7070"
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("control API listening", "component", "control", "addr", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("control API shutting down", "component", "control")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// persist saves the recorder's current settings. A failure is logged; the
// change has already taken effect.
func (s *Server) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveSettings(s.rec.Settings()); err != nil {
		slog.Warn("saving recorder settings", "component", "control", "error", err)
	}
}
