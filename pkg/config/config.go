package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/otairec/otairec/pkg/recorder"
)

// Config is the top-level otairec configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error
	Recording RecordingConfig `yaml:"recording"`
	Rotate    RotateConfig    `yaml:"rotate"`
	Archive   ArchiveConfig   `yaml:"archive"`
	State     StateConfig     `yaml:"state"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Control   ControlConfig   `yaml:"control"`
}

// RecordingConfig holds the recorder's start-up settings. Persisted
// operator settings, when present, take precedence.
type RecordingConfig struct {
	Enabled            bool     `yaml:"enabled"`
	RecordStats        *bool    `yaml:"record_stats"`  // default true
	RecordAlarms       *bool    `yaml:"record_alarms"` // default true
	Directory          string   `yaml:"directory"`
	Filename           string   `yaml:"filename"`
	Sync               bool     `yaml:"sync"`
	RenameOnRotate     bool     `yaml:"rename_on_rotate"`
	AlarmNotifications []string `yaml:"alarm_notifications"`
}

// Settings converts the section to recorder settings.
func (r RecordingConfig) Settings() recorder.Settings {
	return recorder.Settings{
		Enabled:      r.Enabled,
		RecordStats:  boolOr(r.RecordStats, true),
		RecordAlarms: boolOr(r.RecordAlarms, true),
		Directory:    r.Directory,
		Filename:     r.Filename,
	}
}

// RotateConfig configures the rotation triggers.
type RotateConfig struct {
	Signal     *bool  `yaml:"signal"`   // rotate on SIGHUP; default true
	Schedule   string `yaml:"schedule"` // cron expression, empty disables
	Watch      bool   `yaml:"watch"`    // reopen when logrotate moves the file
	MaxSizeRaw string `yaml:"max_size"` // rotate once the file grows past this, needs watch
	MaxSize    int64  `yaml:"-"`
}

// SignalEnabled returns whether SIGHUP requests a rotation.
func (r RotateConfig) SignalEnabled() bool {
	return boolOr(r.Signal, true)
}

// ArchiveConfig configures upload of rotated segments.
type ArchiveConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Backend     BackendConfig `yaml:"backend"`
	Prefix      string        `yaml:"prefix"`
	Compress    *bool         `yaml:"compress"` // zstd; default true
	Level       string        `yaml:"level"`    // fastest, default, better, best
	DeleteLocal bool          `yaml:"delete_local"`
	Keep        int           `yaml:"keep"` // newest remote segments kept per host; 0 keeps all
	QueueSize   int           `yaml:"queue_size"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CompressEnabled returns whether segments are zstd-compressed before upload.
func (a ArchiveConfig) CompressEnabled() bool {
	return boolOr(a.Compress, true)
}

// BackendConfig describes the rclone remote segments are uploaded to.
type BackendConfig struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"` // local, s3, azureblob, googlecloudstorage, sftp
	Root   string            `yaml:"root"`
	Config map[string]string `yaml:"config"`
}

// StateConfig configures persistence of operator settings.
type StateConfig struct {
	Path     string `yaml:"path"` // badger directory; empty disables persistence
	InMemory bool   `yaml:"in_memory"`
}

// Enabled returns whether operator settings are persisted.
func (s StateConfig) Enabled() bool {
	return s.Path != "" || s.InMemory
}

// MetricsConfig configures the Prometheus metrics and health endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"` // pointer to distinguish unset from false; default true
	Addr    string `yaml:"addr"`    // listen address; default ":9090"
}

// MetricsEnabled returns whether the metrics server should run.
func (m MetricsConfig) MetricsEnabled() bool {
	return boolOr(m.Enabled, true)
}

// ControlConfig configures the operator REST API.
type ControlConfig struct {
	Enabled   *bool  `yaml:"enabled"`    // default true
	Addr      string `yaml:"addr"`       // default "127.0.0.1:7070"
	AuditSize int    `yaml:"audit_size"` // operator changes kept in memory, default 256
}

// ControlEnabled returns whether the control API should run.
func (c ControlConfig) ControlEnabled() bool {
	return boolOr(c.Enabled, true)
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

var archiveLevels = map[string]bool{"": true, "fastest": true, "default": true, "better": true, "best": true}

var logLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if err := recorder.ValidateFilename(c.Recording.Filename); err != nil {
		return fmt.Errorf("config: recording.filename: %w", err)
	}
	if c.Recording.Directory == "" {
		return fmt.Errorf("config: recording.directory cannot be empty")
	}
	if c.Rotate.MaxSize < 0 {
		return fmt.Errorf("config: rotate.max_size must be positive, got %d", c.Rotate.MaxSize)
	}
	if c.Rotate.MaxSize > 0 && !c.Rotate.Watch {
		return fmt.Errorf("config: rotate.max_size requires rotate.watch")
	}
	if c.Rotate.MaxSize > 0 && !c.Recording.RenameOnRotate {
		return fmt.Errorf("config: rotate.max_size requires recording.rename_on_rotate")
	}
	if c.Archive.Enabled {
		if c.Archive.Backend.Name == "" {
			return fmt.Errorf("config: archive.backend name cannot be empty")
		}
		if c.Archive.Backend.Type == "" {
			return fmt.Errorf("config: archive backend %q has empty type", c.Archive.Backend.Name)
		}
		if !c.Recording.RenameOnRotate {
			return fmt.Errorf("config: archive requires recording.rename_on_rotate")
		}
	}
	if !archiveLevels[c.Archive.Level] {
		return fmt.Errorf("config: unknown archive.level %q", c.Archive.Level)
	}
	if c.Archive.Keep < 0 {
		return fmt.Errorf("config: archive.keep must be positive, got %d", c.Archive.Keep)
	}
	if c.Archive.QueueSize < 0 {
		return fmt.Errorf("config: archive.queue_size must be positive, got %d", c.Archive.QueueSize)
	}
	return nil
}
