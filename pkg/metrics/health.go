package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
)

// Check returns nil while the thing it watches is healthy.
type Check func() error

// Health is the /healthz response body.
type Health struct {
	Status string            `json:"status"` // "ok" or "degraded"
	Checks map[string]string `json:"checks"`
}

var (
	checksMu sync.RWMutex
	checks   = map[string]Check{}
)

// RegisterHealthCheck installs check under name. A later registration
// with the same name replaces it.
func RegisterHealthCheck(name string, check Check) {
	checksMu.Lock()
	checks[name] = check
	checksMu.Unlock()
}

// Evaluate runs every registered check.
func Evaluate() Health {
	checksMu.RLock()
	snapshot := make(map[string]Check, len(checks))
	for name, c := range checks {
		snapshot[name] = c
	}
	checksMu.RUnlock()

	h := Health{Status: "ok", Checks: make(map[string]string, len(snapshot))}
	for name, c := range snapshot {
		if err := c(); err != nil {
			h.Status = "degraded"
			h.Checks[name] = err.Error()
			continue
		}
		h.Checks[name] = "ok"
	}
	return h
}

// HealthzHandler serves Evaluate as JSON, with 503 when degraded.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	h := Evaluate()
	w.Header().Set("Content-Type", "application/json")
	if h.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(h)
}

// DirHealthCheck fails when dir is missing or is not a directory.
func DirHealthCheck(dir string) Check {
	return func() error {
		fi, err := os.Stat(dir)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}
}
