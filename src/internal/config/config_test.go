// FILE: logbridge/src/internal/config/config_test.go
package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_Defaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, "logbridge", cfg.Bridge.Namespace)
	assert.Equal(t, "info", cfg.Bridge.Policy.DefaultLevel)
	assert.True(t, cfg.Sinks.Console.Enabled)
}

func TestValidateConfig_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(c *Config)
		contains string
	}{
		{
			name:     "NilConfig",
			contains: "config is nil",
		},
		{
			name:     "EmptyNamespace",
			mutate:   func(c *Config) { c.Bridge.Namespace = "" },
			contains: "namespace",
		},
		{
			name:     "BadPolicyLevel",
			mutate:   func(c *Config) { c.Bridge.Policy.DefaultLevel = "loud" },
			contains: "default_level",
		},
		{
			name: "DuplicateOverride",
			mutate: func(c *Config) {
				c.Bridge.Policy.Overrides = []PolicyOverride{
					{Target: "net", Level: "debug"},
					{Target: "net", Level: "warn"},
				}
			},
			contains: "duplicate target",
		},
		{
			name: "NoSinks",
			mutate: func(c *Config) {
				c.Sinks.Console.Enabled = false
			},
			contains: "no sinks enabled",
		},
		{
			name:     "BadConsoleTarget",
			mutate:   func(c *Config) { c.Sinks.Console.Target = "printer" },
			contains: "invalid target",
		},
		{
			name: "BadFilterRegex",
			mutate: func(c *Config) {
				c.Sinks.Console.Filters = []FilterConfig{{Patterns: []string{"["}}}
			},
			contains: "invalid regex",
		},
		{
			name: "BadFilterField",
			mutate: func(c *Config) {
				c.Sinks.Console.Filters = []FilterConfig{{Field: "thread", Patterns: []string{"main"}}}
			},
			contains: "unknown field",
		},
		{
			name: "BadFilterLevel",
			mutate: func(c *Config) {
				c.Sinks.Console.Filters = []FilterConfig{{MinLevel: "loud"}}
			},
			contains: "unknown log level",
		},
		{
			name: "BadTemplate",
			mutate: func(c *Config) {
				c.Sinks.Console.Format.Type = "text"
				c.Sinks.Console.Format.Text.Template = "{{.Level"
			},
			contains: "invalid text template",
		},
		{
			name: "PortConflict",
			mutate: func(c *Config) {
				c.Sinks.HTTP.Enabled = true
				c.Sources.TCP.Enabled = true
				c.Sources.TCP.Port = c.Sinks.HTTP.Port
			},
			contains: "already used",
		},
		{
			name: "BasicAuthWithoutUsers",
			mutate: func(c *Config) {
				c.Sources.HTTP.Enabled = true
				c.Sources.HTTP.Auth.Type = "basic"
			},
			contains: "at least one user",
		},
		{
			name: "BasicAuthPlainPassword",
			mutate: func(c *Config) {
				c.Sources.HTTP.Enabled = true
				c.Sources.HTTP.Auth.Type = "basic"
				c.Sources.HTTP.Auth.Users = []BasicAuthUser{{Username: "admin", PasswordHash: "hunter2"}}
			},
			contains: "argon2id",
		},
		{
			name: "BearerWithoutTokens",
			mutate: func(c *Config) {
				c.Sources.TCP.Enabled = true
				c.Sources.TCP.Auth.Type = "bearer"
			},
			contains: "bearer auth requires",
		},
		{
			name: "RateLimitZeroRate",
			mutate: func(c *Config) {
				c.Sources.TCP.Enabled = true
				c.Sources.TCP.RateLimit.Enabled = true
				c.Sources.TCP.RateLimit.RequestsPerSecond = 0
			},
			contains: "requests_per_second",
		},
		{
			name:     "BadLogOutput",
			mutate:   func(c *Config) { c.Logging.Output = "syslog" },
			contains: "invalid log output",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg *Config
			if tc.mutate != nil {
				cfg = Defaults()
				tc.mutate(cfg)
			}
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Run("AbsoluteFile", func(t *testing.T) {
		t.Setenv("LOGBRIDGE_CONFIG_FILE", "/etc/logbridge/custom.toml")
		assert.Equal(t, "/etc/logbridge/custom.toml", GetConfigPath())
	})

	t.Run("RelativeFileWithDir", func(t *testing.T) {
		t.Setenv("LOGBRIDGE_CONFIG_FILE", "custom.toml")
		t.Setenv("LOGBRIDGE_CONFIG_DIR", "/opt/lb")
		assert.Equal(t, filepath.Join("/opt/lb", "custom.toml"), GetConfigPath())
	})

	t.Run("DirOnly", func(t *testing.T) {
		t.Setenv("LOGBRIDGE_CONFIG_FILE", "")
		t.Setenv("LOGBRIDGE_CONFIG_DIR", "/opt/lb")
		assert.Equal(t, filepath.Join("/opt/lb", "logbridge.toml"), GetConfigPath())
	})
}

func TestCustomEnvTransform(t *testing.T) {
	assert.Equal(t, "LOGBRIDGE_SINKS_HTTP_PORT", customEnvTransform("sinks.http.port"))
}
