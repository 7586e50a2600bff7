// Package testsupport builds throwaway configs and database handles for tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"shepherd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Daemon.SweepInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithApprovalRequired toggles the role-change approval flag on the test config.
func WithApprovalRequired(required bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Approval.ChangeRoleApprovalRequired = required
	}
}

// WithTimeoutDays overrides the approval timeout on the test config.
func WithTimeoutDays(days int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Approval.DefaultTimeoutDays = days
	}
}
