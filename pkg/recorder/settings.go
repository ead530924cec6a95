package recorder

import (
	"errors"
	"fmt"
)

// Settings are the operator controls of a Recorder. They are what the
// control API exposes and what the state store persists.
type Settings struct {
	Enabled      bool   `json:"enabled"`
	RecordStats  bool   `json:"record_stats"`
	RecordAlarms bool   `json:"record_alarms"`
	Directory    string `json:"directory"`
	Filename     string `json:"filename"`
}

// Status is Settings plus the live writer state.
type Status struct {
	Settings
	Path          string `json:"path"`
	OpenPath      string `json:"open_path,omitempty"`
	State         string `json:"state"`
	RotatePending bool   `json:"rotate_pending"`
}

// Settings returns the current controls.
func (r *Recorder) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settingsLocked()
}

func (r *Recorder) settingsLocked() Settings {
	return Settings{
		Enabled:      r.on,
		RecordStats:  r.recordStats,
		RecordAlarms: r.recordAlarms,
		Directory:    r.dir,
		Filename:     r.name,
	}
}

// Snapshot returns the controls together with the writer state.
func (r *Recorder) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{
		Settings:      r.settingsLocked(),
		Path:          r.path,
		State:         r.state.String(),
		RotatePending: r.rotatePending,
	}
	if r.file != nil {
		st.OpenPath = r.openPath
	}
	return st
}

// Apply sets every control in s. An empty Directory or Filename leaves
// the current value. Rejected target values are reported together and do
// not stop the remaining controls from being applied.
func (r *Recorder) Apply(s Settings) error {
	var errs []error
	if s.Directory != "" {
		if err := ValidateDirectory(s.Directory); err != nil {
			errs = append(errs, err)
		} else {
			r.SetOutputDirectory(s.Directory)
		}
	}
	if s.Filename != "" {
		if err := ValidateFilename(s.Filename); err != nil {
			errs = append(errs, err)
		} else {
			r.SetFilename(s.Filename)
		}
	}
	r.RecordStats(s.RecordStats)
	r.RecordAlarms(s.RecordAlarms)
	r.Enable(s.Enabled)
	if len(errs) > 0 {
		return fmt.Errorf("recorder.Apply: %w", errors.Join(errs...))
	}
	return nil
}
