package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shepherd/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Approval.DefaultTimeoutDays != 7 {
		t.Fatalf("expected 7 day timeout default, got %d", cfg.Approval.DefaultTimeoutDays)
	}
	if !cfg.Approval.ChangeRoleApprovalRequired {
		t.Fatal("expected approval flag on by default")
	}
	if cfg.RequestTimeout() != 7*24*time.Hour {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[approval]",
		"change_role_approval_required = false",
		"default_timeout_days = 3",
		"[daemon]",
		"sweep_interval = 5",
		"[logging]",
		`format = "json"`,
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %s, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Approval.ChangeRoleApprovalRequired {
		t.Fatal("expected approval flag off")
	}
	if cfg.Approval.DefaultTimeoutDays != 3 {
		t.Fatalf("expected 3 day timeout, got %d", cfg.Approval.DefaultTimeoutDays)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "shepherd.db") {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected file to be reported missing")
	}
	if cfg.Approval.DefaultTimeoutDays != 7 {
		t.Fatalf("expected defaults, got %+v", cfg.Approval)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}

	cfg = config.Default()
	cfg.Approval.DefaultTimeoutDays = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative timeout")
	}

	cfg = config.Default()
	cfg.Daemon.SweepInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero sweep interval")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	written, err := config.WriteSample(path)
	if err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if written != path {
		t.Fatalf("unexpected path: %s", written)
	}
	if _, err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
}
