// FILE: logbridge/src/internal/filter/policy_test.go
package filter

import (
	"testing"

	"logbridge/src/internal/bridge"
	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ bridge.Policy = (*Policy)(nil)

func TestPolicy_MatchesDefaultPolicy(t *testing.T) {
	p, err := NewPolicy(config.Defaults().Bridge)
	require.NoError(t, err)
	def := bridge.DefaultPolicy()

	targets := []string{"logbridge", "logbridge.source.tcp", "proxy", "", "log"}
	levels := []core.Level{core.LevelTrace, core.LevelDebug, core.LevelInfo, core.LevelWarn, core.LevelError}

	for _, target := range targets {
		for _, level := range levels {
			assert.Equal(t, def.Allow(target, level), p.Allow(target, level),
				"target=%q level=%s", target, level)
		}
	}
}

func TestPolicy_Overrides(t *testing.T) {
	p, err := NewPolicy(config.BridgeConfig{
		Namespace: "logbridge",
		Policy: config.PolicyConfig{
			DefaultLevel: "warn",
			Overrides: []config.PolicyOverride{
				{Target: "proxy", Level: "info"},
				{Target: "proxy.tls", Level: "trace"},
				{Target: "db", Level: "error"},
			},
		},
	})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		target string
		level  core.Level
		allow  bool
	}{
		{"NamespaceAlways", "logbridge.host", core.LevelTrace, true},
		{"DefaultLevelBlocksInfo", "other", core.LevelInfo, false},
		{"DefaultLevelAllowsWarn", "other", core.LevelWarn, true},
		{"ShortPrefix", "proxy.http", core.LevelInfo, true},
		{"ShortPrefixBlocksDebug", "proxy.http", core.LevelDebug, false},
		{"LongestPrefixWins", "proxy.tls.handshake", core.LevelTrace, true},
		{"StricterOverride", "db.pool", core.LevelWarn, false},
		{"StricterOverrideError", "db.pool", core.LevelError, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allow, p.Allow(tc.target, tc.level))
		})
	}

	stats := p.GetStats()
	assert.Equal(t, "WARN", stats["default_level"])
	assert.Equal(t, map[string]string{"proxy": "INFO", "proxy.tls": "TRACE", "db": "ERROR"}, stats["overrides"])
}

func TestPolicy_InvalidLevels(t *testing.T) {
	_, err := NewPolicy(config.BridgeConfig{Policy: config.PolicyConfig{DefaultLevel: "loud"}})
	require.Error(t, err)

	_, err = NewPolicy(config.BridgeConfig{
		Policy: config.PolicyConfig{
			DefaultLevel: "info",
			Overrides:    []config.PolicyOverride{{Target: "x", Level: "nope"}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "override[0]")
}

func TestPolicy_InstalledOnBridge(t *testing.T) {
	p, err := NewPolicy(config.BridgeConfig{
		Namespace: "logbridge",
		Policy:    config.PolicyConfig{DefaultLevel: "error"},
	})
	require.NoError(t, err)

	b := bridge.New()
	require.NoError(t, b.Install())
	b.SetPolicy(p)

	assert.False(t, b.Enabled("app", core.LevelWarn))
	assert.True(t, b.Enabled("app", core.LevelError))
	assert.True(t, b.Enabled("logbridge", core.LevelTrace))
}
