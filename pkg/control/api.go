package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/otairec/otairec/pkg/backend"
	"github.com/otairec/otairec/pkg/state"
)

// RegisterAPIRoutes registers all REST API routes on the given mux.
func (s *Server) RegisterAPIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/recording", s.handleStatus)
	mux.HandleFunc("PUT /api/v1/recording/enabled", s.handleToggle("enable", s.rec.Enable))
	mux.HandleFunc("PUT /api/v1/recording/stats", s.handleToggle("record_stats", s.rec.RecordStats))
	mux.HandleFunc("PUT /api/v1/recording/alarms", s.handleToggle("record_alarms", s.rec.RecordAlarms))
	mux.HandleFunc("PUT /api/v1/recording/directory", s.handleDirectory)
	mux.HandleFunc("PUT /api/v1/recording/filename", s.handleFilename)
	mux.HandleFunc("POST /api/v1/recording/rotate", s.handleRotate)
	mux.HandleFunc("GET /api/v1/segments", s.handleSegments)
	mux.HandleFunc("GET /api/v1/archive", s.handleArchive)
	mux.HandleFunc("GET /api/v1/archive/{name...}", s.handleArchiveFetch)
	mux.HandleFunc("GET /api/v1/audit", s.handleAudit)
}

// GET /api/v1/recording
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.rec.Snapshot())
}

// PUT /api/v1/recording/{enabled,stats,alarms} with {"enabled": bool}
func (s *Server) handleToggle(action string, set func(bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			http.Error(w, "enabled is required", http.StatusBadRequest)
			return
		}
		set(*req.Enabled)
		s.record(r, action, strconv.FormatBool(*req.Enabled), true)
		s.persist()
		writeJSON(w, s.rec.Snapshot())
	}
}

// PUT /api/v1/recording/directory
func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Directory string `json:"directory"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !s.rec.SetOutputDirectory(req.Directory) {
		s.record(r, "set_directory", req.Directory, false)
		http.Error(w, fmt.Sprintf("invalid directory %q", req.Directory), http.StatusBadRequest)
		return
	}
	s.record(r, "set_directory", req.Directory, true)
	s.persist()
	writeJSON(w, s.rec.Snapshot())
}

// PUT /api/v1/recording/filename
func (s *Server) handleFilename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !s.rec.SetFilename(req.Filename) {
		s.record(r, "set_filename", req.Filename, false)
		http.Error(w, fmt.Sprintf("invalid filename %q", req.Filename), http.StatusBadRequest)
		return
	}
	s.record(r, "set_filename", req.Filename, true)
	s.persist()
	writeJSON(w, s.rec.Snapshot())
}

// POST /api/v1/recording/rotate
func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	s.rec.RequestLogRotate()
	s.record(r, "rotate", "", true)
	writeJSON(w, s.rec.Snapshot())
}

// GET /api/v1/segments lists segments recorded in the local ledger.
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, []state.Segment{})
		return
	}
	segs, err := s.store.Segments()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if segs == nil {
		segs = []state.Segment{}
	}
	writeJSON(w, segs)
}

// GET /api/v1/archive lists what the remote backend actually holds.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		http.Error(w, "archive not configured", http.StatusNotFound)
		return
	}
	objs, err := listRemote(r.Context(), s.remote, s.dir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, objs)
}

// GET /api/v1/archive/{name...} streams one archived segment. name is a
// path as returned by GET /api/v1/archive.
func (s *Server) handleArchiveFetch(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		http.Error(w, "archive not configured", http.StatusNotFound)
		return
	}
	name := path.Clean(r.PathValue("name"))
	if !strings.HasPrefix(name, s.dir+"/") {
		http.Error(w, fmt.Sprintf("%q is outside the archive directory", name), http.StatusBadRequest)
		return
	}
	rc, err := s.remote.Open(r.Context(), name)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(name)))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("streaming archived segment", "component", "control", "name", name, "error", err)
	}
}

// GET /api/v1/audit?limit=N
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, s.audit.Recent(limit))
}

// ─── Helpers ──────────────────────────────────────────────────

func (s *Server) record(r *http.Request, action, value string, ok bool) {
	e := AuditEntry{Remote: r.RemoteAddr, Action: action, Value: value, Success: ok}
	if !ok {
		e.Error = "rejected by recorder"
	}
	s.audit.Log(e)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
