// FILE: logbridge/src/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"logbridge/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

func defaults() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Namespace: core.DefaultNamespace,
			MinLevel:  "trace",
			Policy: PolicyConfig{
				DefaultLevel: "info",
			},
		},
		Sinks: SinksConfig{
			Console: ConsoleSinkOptions{
				Enabled: true,
				Target:  "stdout",
				Format: FormatConfig{
					Type: "text",
					Text: DefaultTextFormatterOptions(),
					JSON: DefaultJSONFormatterOptions(),
				},
			},
			File: FileSinkOptions{
				Enabled:        false,
				Directory:      "./log",
				Name:           "records",
				MaxSizeMB:      100,
				MaxTotalSizeMB: 1000,
				RetentionHours: 168,
				Format: FormatConfig{
					Type: "json",
					Text: DefaultTextFormatterOptions(),
					JSON: DefaultJSONFormatterOptions(),
				},
			},
			HTTP: HTTPSinkOptions{
				Enabled:      false,
				Host:         "0.0.0.0",
				Port:         8080,
				StreamPath:   "/stream",
				StatusPath:   "/status",
				BufferSize:   core.DefaultBufferSize,
				WriteTimeout: 10000,
				Heartbeat: HeartbeatConfig{
					Enabled:  true,
					Interval: 30,
				},
				Auth: AuthConfig{Type: "none"},
				Format: FormatConfig{
					Type: "json",
					Text: DefaultTextFormatterOptions(),
					JSON: DefaultJSONFormatterOptions(),
				},
			},
		},
		Sources: SourcesConfig{
			TCP: TCPSourceOptions{
				Enabled:       false,
				Host:          "0.0.0.0",
				Port:          9090,
				DefaultTarget: "tcp",
				Auth:          AuthConfig{Type: "none"},
				RateLimit:     defaultRateLimit(),
			},
			HTTP: HTTPSourceOptions{
				Enabled:       false,
				Host:          "0.0.0.0",
				Port:          8081,
				IngestPath:    "/emit",
				StatusPath:    "/status",
				MaxBodySize:   core.MaxClientBufferSize,
				DefaultTarget: "http",
				Auth:          AuthConfig{Type: "none"},
				RateLimit:     defaultRateLimit(),
			},
		},
		Logging:               DefaultLogConfig(),
		StatusIntervalSeconds: 30,
	}
}

func defaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           false,
		RequestsPerSecond: 100,
		BurstSize:         200,
		MaxTrackedIPs:     10000,
	}
}

// Defaults returns a copy of the built-in configuration
func Defaults() *Config {
	return defaults()
}

// LoadWithCLI builds the configuration from defaults, the config file,
// LOGBRIDGE_ environment variables and CLI arguments, in rising priority.
func LoadWithCLI(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix("LOGBRIDGE_").
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		// A missing config file is fine, defaults and env still apply
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan("", finalConfig); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, ValidateConfig(finalConfig)
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = "LOGBRIDGE_" + env
	return env
}

// GetConfigPath resolves the config file from LOGBRIDGE_CONFIG_FILE,
// LOGBRIDGE_CONFIG_DIR or the user config directory.
func GetConfigPath() string {
	if configFile := os.Getenv("LOGBRIDGE_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("LOGBRIDGE_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("LOGBRIDGE_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "logbridge.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "logbridge.toml")
	}

	return "logbridge.toml"
}
