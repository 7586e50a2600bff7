package config

const (
	defaultDataDir             = "~/.local/share/shepherd"
	defaultLogDir              = "~/.local/share/shepherd/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultApprovalTimeoutDays = 7
	defaultSweepInterval       = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Approval: Approval{
			ChangeRoleApprovalRequired: true,
			DefaultTimeoutDays:         defaultApprovalTimeoutDays,
		},
		Daemon: Daemon{
			SweepInterval: defaultSweepInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Telemetry: Telemetry{
			Enabled: false,
		},
	}
}
