package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deixis/runcmd/internal/runner"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".runcmd"), `version: 1
timeout: 10s
max_args: 8
overflow: reject
env: [FOO=bar]
history:
  capacity: 4
log_level: debug
`)

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := res.Config
	if res.Path != filepath.Join(dir, ".runcmd") {
		t.Errorf("Path = %q, want %q", res.Path, filepath.Join(dir, ".runcmd"))
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout = %s, want 10s", cfg.Timeout())
	}
	if cfg.MaxArgs() != 8 {
		t.Errorf("MaxArgs = %d, want 8", cfg.MaxArgs())
	}
	if cfg.Overflow() != runner.Reject {
		t.Errorf("Overflow = %d, want Reject", cfg.Overflow())
	}
	if cfg.HistoryCapacity() != 4 {
		t.Errorf("HistoryCapacity = %d, want 4", cfg.HistoryCapacity())
	}
	if cfg.Level() != logrus.DebugLevel {
		t.Errorf("Level = %s, want debug", cfg.Level())
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".runcmd.toml"), `version = 2
delimiters = ","
max_output = 512

[history]
dir = "/var/tmp/runs"
`)

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := res.Config
	if cfg.Version != 2 {
		t.Errorf("Version = %d, want 2", cfg.Version)
	}
	if cfg.Delimiters != "," {
		t.Errorf("Delimiters = %q, want %q", cfg.Delimiters, ",")
	}
	if cfg.MaxOutputBytes() != 512 {
		t.Errorf("MaxOutputBytes = %d, want 512", cfg.MaxOutputBytes())
	}
	if cfg.History.Dir != "/var/tmp/runs" {
		t.Errorf("History.Dir = %q, want /var/tmp/runs", cfg.History.Dir)
	}
}

func TestLoad_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".runcmd"), "version: 3\n")

	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Config.Version != 3 {
		t.Errorf("Version = %d, want 3", res.Config.Version)
	}
}

func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := res.Config
	if cfg.Timeout() != 0 {
		t.Errorf("Timeout = %s, want 0", cfg.Timeout())
	}
	if cfg.MaxArgs() != runner.DefaultMaxArgs {
		t.Errorf("MaxArgs = %d, want %d", cfg.MaxArgs(), runner.DefaultMaxArgs)
	}
	if cfg.Overflow() != runner.Truncate {
		t.Errorf("Overflow = %d, want Truncate", cfg.Overflow())
	}
	if cfg.HistoryCapacity() != DefaultHistoryCapacity {
		t.Errorf("HistoryCapacity = %d, want %d", cfg.HistoryCapacity(), DefaultHistoryCapacity)
	}
	if cfg.Level() != logrus.InfoLevel {
		t.Errorf("Level = %s, want info", cfg.Level())
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"overflow", "overflow: drop\n", "invalid overflow"},
		{"timeout", "timeout: soon\n", "invalid timeout"},
		{"env", "env: [NOEQUALS]\n", "invalid env entry"},
		{"syntax", "version: [\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".runcmd")
			writeFile(t, path, tt.data)
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	cfg := &Config{
		RawTimeout:  "2s",
		Delimiters:  ":",
		RawMaxArgs:  3,
		RawOverflow: "reject",
		Dir:         "/tmp",
		Env:         []string{"A=1"},
	}
	var r runner.Runner
	cfg.Apply(&r)
	if r.Timeout != 2*time.Second {
		t.Errorf("Timeout = %s, want 2s", r.Timeout)
	}
	if r.Delimiters != ":" || r.MaxArgs != 3 || r.Overflow != runner.Reject {
		t.Errorf("runner = %+v, want delimiters/max_args/overflow copied", r)
	}
	if r.Dir != "/tmp" || len(r.Env) != 1 {
		t.Errorf("runner Dir/Env = %q/%q, want copied", r.Dir, r.Env)
	}
}
