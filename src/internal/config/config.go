// FILE: logbridge/src/internal/config/config.go
package config

// Config is the complete LogBridge configuration
type Config struct {
	// Bridge namespace and filter policy
	Bridge BridgeConfig `toml:"bridge"`

	// Host-side outputs for delivered records
	Sinks SinksConfig `toml:"sinks"`

	// Network producers feeding the bridge
	Sources SourcesConfig `toml:"sources"`

	// LogBridge's own application logging
	Logging LogConfig `toml:"logging"`

	// Status reporter
	DisableStatusReporter bool  `toml:"disable_status_reporter"`
	StatusIntervalSeconds int64 `toml:"status_interval_seconds"`

	// Suppress all console output
	Quiet bool `toml:"quiet"`
}

// BridgeConfig configures the process-wide bridge
type BridgeConfig struct {
	// Target prefix of the bridge's own diagnostics, always forwarded
	Namespace string `toml:"namespace"`

	// Global gate evaluated before the policy: trace, debug, info, warn, error
	MinLevel string `toml:"min_level"`

	Policy PolicyConfig `toml:"policy"`
}

// PolicyConfig configures the (target, level) filter policy
type PolicyConfig struct {
	// Minimum level for targets outside the namespace
	DefaultLevel string `toml:"default_level"`

	// Per-target-prefix minimum levels, longest prefix wins
	Overrides []PolicyOverride `toml:"overrides"`
}

type PolicyOverride struct {
	Target string `toml:"target"`
	Level  string `toml:"level"`
}
