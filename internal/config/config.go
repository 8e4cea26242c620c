// Package config loads and validates the optional .runcmd file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/deixis/runcmd/internal/runner"
)

// Default values for settings the runner itself does not default.
const (
	DefaultHistoryCapacity = 16
	DefaultMaxOutput       = 1 << 20 // 1 MB
)

// FileNames are the configuration files searched for, in order. Files
// ending in .toml are decoded as TOML, everything else as YAML.
var FileNames = []string{".runcmd", ".runcmd.yaml", ".runcmd.toml"}

// Config holds the parsed .runcmd configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int           `yaml:"version" toml:"version"`
	RawTimeout   string        `yaml:"timeout" toml:"timeout"` // e.g. "30s"; empty waits forever
	Delimiters   string        `yaml:"delimiters" toml:"delimiters"`
	RawMaxArgs   int           `yaml:"max_args" toml:"max_args"`
	RawOverflow  string        `yaml:"overflow" toml:"overflow"` // truncate or reject
	Dir          string        `yaml:"dir" toml:"dir"`
	Env          []string      `yaml:"env" toml:"env"`               // KEY=VALUE
	RawMaxOutput int           `yaml:"max_output" toml:"max_output"` // bytes captured per stream by the MCP server
	History      HistoryConfig `yaml:"history" toml:"history"`
	LogLevel     string        `yaml:"log_level" toml:"log_level"`
	LogFormat    string        `yaml:"log_format" toml:"log_format"` // text or json
}

// HistoryConfig controls where run records are kept.
type HistoryConfig struct {
	Capacity int    `yaml:"capacity" toml:"capacity"` // in-memory LRU entries
	Dir      string `yaml:"dir" toml:"dir"`           // empty uses the user cache dir
}

// Timeout returns the configured wait bound, or zero for none.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// MaxArgs returns the configured argv bound or the runner default.
func (c *Config) MaxArgs() int {
	if c.RawMaxArgs > 0 {
		return c.RawMaxArgs
	}
	return runner.DefaultMaxArgs
}

// Overflow returns the configured overflow policy, defaulting to truncate.
func (c *Config) Overflow() runner.Overflow {
	if strings.EqualFold(c.RawOverflow, "reject") {
		return runner.Reject
	}
	return runner.Truncate
}

// MaxOutputBytes returns the configured capture size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// HistoryCapacity returns the configured LRU size or the default.
func (c *Config) HistoryCapacity() int {
	if c.History.Capacity > 0 {
		return c.History.Capacity
	}
	return DefaultHistoryCapacity
}

// HistoryDir returns the configured record directory, or a runcmd
// directory under the user cache dir. It is empty if neither is available.
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cache, "runcmd", "runs")
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() logrus.Level {
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

// Formatter returns the logrus formatter named by log_format.
func (c *Config) Formatter() logrus.Formatter {
	if strings.EqualFold(c.LogFormat, "json") {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}

// Apply copies the runner settings onto r.
func (c *Config) Apply(r *runner.Runner) {
	r.Delimiters = c.Delimiters
	r.MaxArgs = c.MaxArgs()
	r.Overflow = c.Overflow()
	r.Timeout = c.Timeout()
	r.Dir = c.Dir
	r.Env = c.Env
}

// Validate reports settings that are present but unusable.
func (c *Config) Validate() error {
	if c.RawTimeout != "" {
		if d, err := time.ParseDuration(c.RawTimeout); err != nil || d < 0 {
			return fmt.Errorf("invalid timeout %q", c.RawTimeout)
		}
	}
	switch strings.ToLower(c.RawOverflow) {
	case "", "truncate", "reject":
	default:
		return fmt.Errorf("invalid overflow %q: want truncate or reject", c.RawOverflow)
	}
	for _, kv := range c.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("invalid env entry %q: want KEY=VALUE", kv)
		}
	}
	return nil
}

// LoadResult holds the parsed config and the file it came from.
type LoadResult struct {
	Config *Config
	Path   string // empty when no file was found
}

// Load looks for a configuration file in dir and each of its parents.
// If none exists, a default Config is returned.
func Load(dir string) (*LoadResult, error) {
	path, err := find(dir)
	if err != nil {
		return &LoadResult{Config: &Config{}}, nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates the configuration file at path.
func LoadFile(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if filepath.Ext(path) == ".toml" {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Path: path}, nil
}

// find walks upward from dir looking for one of FileNames.
func find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
				return path, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no configuration file found")
		}
		dir = parent
	}
}
