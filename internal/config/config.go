package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config holds all reclaim configuration.
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
	Log      LogConfig      `yaml:"log"`
	AuditLog string         `yaml:"audit_log"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Exclude  []string       `yaml:"exclude"`
}

// ScanConfig controls the walker and the collectors fed by it.
type ScanConfig struct {
	Paths             []string `yaml:"paths"`
	FollowSymlinks    bool     `yaml:"follow_symlinks"`
	ProgressEvery     int      `yaml:"progress_every"`
	LargeDirThreshold int      `yaml:"large_dir_threshold"`
	HashWorkers       int      `yaml:"hash_workers"`

	MinDuplicateSize    int64  `yaml:"-"`
	MinDuplicateSizeStr string `yaml:"min_duplicate_size"`
	LargeFileMin        int64  `yaml:"-"`
	LargeFileMinStr     string `yaml:"large_file_min"`
}

// CleanupConfig holds deletion policy. The verification delay and retry
// values are tuning knobs, not guarantees.
type CleanupConfig struct {
	UseTrash     bool   `yaml:"use_trash"`
	VerifyDelay  string `yaml:"verify_delay"`
	CloudRetries int    `yaml:"cloud_retries"`
	RetryBackoff string `yaml:"retry_backoff"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ScheduleConfig controls the in-process rescan loop.
type ScheduleConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Interval string   `yaml:"interval" json:"interval"`
	Time     string   `yaml:"time" json:"time,omitempty"`
	Paths    []string `yaml:"paths" json:"paths"`
}

// Default returns a Config with all default values populated.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Paths:               []string{"~"},
			ProgressEvery:       100,
			LargeDirThreshold:   10_000,
			HashWorkers:         0,
			MinDuplicateSize:    1024 * 1024,
			MinDuplicateSizeStr: "1MiB",
			LargeFileMin:        100 * 1024 * 1024,
			LargeFileMinStr:     "100MiB",
		},
		Cleanup: CleanupConfig{
			UseTrash:     true,
			VerifyDelay:  "100ms",
			CloudRetries: 3,
			RetryBackoff: "100ms",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Exclude: []string{},
		Schedule: ScheduleConfig{
			Enabled:  false,
			Interval: "daily",
			Time:     "",
			Paths:    []string{"~/Downloads"},
		},
	}
}

// DefaultPath returns ~/.config/reclaim/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "reclaim", "config.yaml"), nil
}

// Load loads config from the given path. If path is empty, it uses the
// default location. If the file does not exist, it creates it with
// default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	return LoadFrom(path)
}

// LoadFrom loads and parses config from the given path. Missing fields
// keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.resolveSizes(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolveSizes() error {
	if c.Scan.MinDuplicateSizeStr != "" {
		size, err := ParseSize(c.Scan.MinDuplicateSizeStr)
		if err != nil {
			return fmt.Errorf("failed to parse scan.min_duplicate_size %q: %w", c.Scan.MinDuplicateSizeStr, err)
		}
		c.Scan.MinDuplicateSize = size
	}
	if c.Scan.LargeFileMinStr != "" {
		size, err := ParseSize(c.Scan.LargeFileMinStr)
		if err != nil {
			return fmt.Errorf("failed to parse scan.large_file_min %q: %w", c.Scan.LargeFileMinStr, err)
		}
		c.Scan.LargeFileMin = size
	}
	return nil
}

// Save marshals the config to YAML and writes it to the given path,
// creating parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ParseSize parses a human-readable size such as "100MiB", "1GB" or a
// plain byte count. Decimal suffixes (KB, MB) are powers of 1000 and
// binary suffixes (KiB, MiB) powers of 1024.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative size %q", s)
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(n), nil
}

// ParseDuration parses duration strings like "90d", "30d", "7d" into
// time.Duration. Falls back to time.ParseDuration for standard formats.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		numStr := strings.TrimSuffix(s, "d")
		days, err := strconv.Atoi(numStr)
		if err == nil {
			if days < 0 {
				return 0, fmt.Errorf("negative duration %q", s)
			}
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// VerifyDelayDuration returns the parsed verify delay, or fallback if it
// is unset or invalid.
func (c CleanupConfig) VerifyDelayDuration(fallback time.Duration) time.Duration {
	return durationOr(c.VerifyDelay, fallback)
}

// RetryBackoffDuration returns the parsed retry backoff, or fallback if it
// is unset or invalid.
func (c CleanupConfig) RetryBackoffDuration(fallback time.Duration) time.Duration {
	return durationOr(c.RetryBackoff, fallback)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Warning is one problem found by Validate.
type Warning struct {
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Validate checks values that parse but make no sense.
func (c *Config) Validate() []Warning {
	var ws []Warning

	if len(c.Scan.Paths) == 0 {
		ws = append(ws, Warning{Field: "scan.paths", Message: "no scan paths configured", Suggestion: `add at least one directory, e.g. "~"`})
	}
	if c.Scan.ProgressEvery < 0 {
		ws = append(ws, Warning{Field: "scan.progress_every", Message: "must not be negative"})
	}
	if c.Scan.LargeDirThreshold < 0 {
		ws = append(ws, Warning{Field: "scan.large_dir_threshold", Message: "must not be negative"})
	}
	if c.Scan.HashWorkers < 0 {
		ws = append(ws, Warning{Field: "scan.hash_workers", Message: "must not be negative", Suggestion: "use 0 for one worker per CPU"})
	}
	if _, err := ParseSize(c.Scan.MinDuplicateSizeStr); c.Scan.MinDuplicateSizeStr != "" && err != nil {
		ws = append(ws, Warning{Field: "scan.min_duplicate_size", Message: err.Error(), Suggestion: `use a value like "1MiB"`})
	}
	if _, err := ParseSize(c.Scan.LargeFileMinStr); c.Scan.LargeFileMinStr != "" && err != nil {
		ws = append(ws, Warning{Field: "scan.large_file_min", Message: err.Error(), Suggestion: `use a value like "100MiB"`})
	}

	durations := []struct{ field, value string }{
		{"cleanup.verify_delay", c.Cleanup.VerifyDelay},
		{"cleanup.retry_backoff", c.Cleanup.RetryBackoff},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if _, err := ParseDuration(d.value); err != nil {
			ws = append(ws, Warning{Field: d.field, Message: err.Error(), Suggestion: `use a value like "100ms"`})
		}
	}
	if c.Cleanup.CloudRetries < 1 {
		ws = append(ws, Warning{Field: "cleanup.cloud_retries", Message: "must be at least 1"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "off", "disabled":
	default:
		ws = append(ws, Warning{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level), Suggestion: "use debug, info, warn or error"})
	}

	if c.Schedule.Enabled {
		if c.Schedule.Interval == "" {
			ws = append(ws, Warning{Field: "schedule.interval", Message: "schedule is enabled but has no interval"})
		}
		if len(c.Schedule.Paths) == 0 {
			ws = append(ws, Warning{Field: "schedule.paths", Message: "schedule is enabled but has no paths"})
		}
	}

	for _, p := range c.Exclude {
		if _, err := filepath.Match(strings.TrimSuffix(p, "/**"), ""); err != nil {
			ws = append(ws, Warning{Field: "exclude", Message: fmt.Sprintf("invalid pattern %q: %v", p, err)})
		}
	}

	return ws
}

// LoadAndValidate parses data strictly, reporting unknown keys and
// invalid values as warnings. The returned config is nil only when the
// data is not valid YAML.
func LoadAndValidate(data []byte) (*Config, []Warning) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(cfg)

	var ws []Warning
	var typeErr *yaml.TypeError
	switch {
	case err == nil, errors.Is(err, io.EOF):
	case errors.As(err, &typeErr):
		for _, msg := range typeErr.Errors {
			ws = append(ws, Warning{Message: msg})
		}
		// Decode again leniently so the known fields are still checked.
		cfg = Default()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, append(ws, Warning{Message: err.Error()})
		}
	default:
		return nil, []Warning{{Message: fmt.Sprintf("failed to parse config: %v", err)}}
	}

	ws = append(ws, cfg.Validate()...)
	_ = cfg.resolveSizes() // bad sizes are already in ws
	return cfg, ws
}
