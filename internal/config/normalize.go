package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeApproval()
	c.normalizeDaemon()
	c.normalizeLogging()
	return c.normalizeTelemetry()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeApproval() {
	if c.Approval.DefaultTimeoutDays == 0 {
		c.Approval.DefaultTimeoutDays = defaultApprovalTimeoutDays
	}
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.SweepInterval == 0 {
		c.Daemon.SweepInterval = defaultSweepInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTelemetry() error {
	if strings.TrimSpace(c.Telemetry.OutputFile) == "" {
		c.Telemetry.OutputFile = ""
		return nil
	}
	expanded, err := expandPath(c.Telemetry.OutputFile)
	if err != nil {
		return fmt.Errorf("telemetry.output_file: %w", err)
	}
	c.Telemetry.OutputFile = expanded
	return nil
}
