package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otairec/otairec/pkg/recorder"
)

// Load reads an otairec configuration file. ${VAR} references are
// expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load for configuration already in memory.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.parseSizes(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration an empty file produces.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Recording.Directory == "" {
		c.Recording.Directory = recorder.DefaultDirectory
	}
	if c.Recording.Filename == "" {
		c.Recording.Filename = recorder.DefaultFilename
	}
	if c.Archive.Level == "" {
		c.Archive.Level = "default"
	}
	if c.Archive.QueueSize == 0 {
		c.Archive.QueueSize = 64
	}
	if c.Archive.Timeout == 0 {
		c.Archive.Timeout = 5 * time.Minute
	}
	if c.Archive.Backend.Name == "" && c.Archive.Backend.Type != "" {
		c.Archive.Backend.Name = "archive"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Control.Addr == "" {
		c.Control.Addr = "127.0.0.1:7070"
	}
}

func (c *Config) parseSizes() error {
	v, err := ParseSize(c.Rotate.MaxSizeRaw)
	if err != nil {
		return fmt.Errorf("config: invalid rotate.max_size %q: %w", c.Rotate.MaxSizeRaw, err)
	}
	c.Rotate.MaxSize = v
	return nil
}

var sizeShift = map[string]uint{"": 0, "K": 10, "M": 20, "G": 30, "T": 40, "P": 50}

// ParseSize converts sizes such as "64MB", "1.5G" or "4096" to bytes.
// Units are binary; the trailing B is optional.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	num := strings.TrimRight(s, "KMGTPB")
	shift, ok := sizeShift[strings.TrimSuffix(s[len(num):], "B")]
	if !ok {
		return 0, fmt.Errorf("config.ParseSize: unknown unit in %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("config.ParseSize: invalid size %q", s)
	}
	return int64(v * float64(int64(1)<<shift)), nil
}
