package control

import (
	"log/slog"
	"sync"
	"time"
)

// AuditEntry records one operator change made through the API.
type AuditEntry struct {
	Timestamp time.Time `json:"ts"`
	Remote    string    `json:"remote,omitempty"`
	Action    string    `json:"action"`
	Value     string    `json:"value,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// AuditLog keeps the most recent operator changes in a ring buffer.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	maxSize int
}

// NewAuditLog creates an audit log holding at most maxSize entries.
func NewAuditLog(maxSize int) *AuditLog {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &AuditLog{
		entries: make([]AuditEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Log records e, stamping it if the caller did not.
func (al *AuditLog) Log(e AuditEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	al.mu.Lock()
	al.entries = append(al.entries, e)
	if len(al.entries) > al.maxSize {
		al.entries = al.entries[len(al.entries)-al.maxSize:]
	}
	al.mu.Unlock()

	if e.Success {
		slog.Info("recorder setting changed", "component", "control",
			"action", e.Action, "value", e.Value, "remote", e.Remote)
	} else {
		slog.Warn("recorder setting rejected", "component", "control",
			"action", e.Action, "value", e.Value, "remote", e.Remote, "error", e.Error)
	}
}

// Recent returns up to limit entries, oldest first.
func (al *AuditLog) Recent(limit int) []AuditEntry {
	al.mu.Lock()
	defer al.mu.Unlock()

	if limit <= 0 || limit > len(al.entries) {
		limit = len(al.entries)
	}
	out := make([]AuditEntry, limit)
	copy(out, al.entries[len(al.entries)-limit:])
	return out
}

// Len returns the number of entries held.
func (al *AuditLog) Len() int {
	al.mu.Lock()
	defer al.mu.Unlock()
	return len(al.entries)
}
