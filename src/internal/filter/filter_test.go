// FILE: logbridge/src/internal/filter/filter_test.go
package filter

import (
	"testing"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestNewFilter(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{Patterns: []string{"ok"}})
		require.NoError(t, err)
		assert.False(t, f.exclude)
		assert.Equal(t, config.FilterFieldMessage, f.field)
		assert.False(t, f.byLevel)
	})

	t.Run("InvalidRegex", func(t *testing.T) {
		_, err := NewFilter(config.FilterConfig{Patterns: []string{"ok", "[invalid"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pattern[1]")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		_, err := NewFilter(config.FilterConfig{MinLevel: "chatty"})
		assert.Error(t, err)
	})
}

func TestFilter_Allow(t *testing.T) {
	served := core.NewRecordAt(core.LevelInfo, "proxy::http", "request served", "src/http.rs", 42)
	failed := core.NewRecord(core.LevelError, "proxy::upstream", "connect refused")
	probe := core.NewRecord(core.LevelDebug, "db", "healthcheck ok")

	testCases := []struct {
		name string
		cfg  config.FilterConfig
		want []bool // served, failed, probe
	}{
		{
			name: "NoCriteria",
			cfg:  config.FilterConfig{Type: config.FilterTypeExclude},
			want: []bool{true, true, true},
		},
		{
			name: "IncludeTargetPrefix",
			cfg:  config.FilterConfig{Targets: []string{"proxy"}},
			want: []bool{true, true, false},
		},
		{
			name: "IncludeMinLevel",
			cfg:  config.FilterConfig{MinLevel: "warn"},
			want: []bool{false, true, false},
		},
		{
			name: "ExcludePatternOnMessage",
			cfg:  config.FilterConfig{Type: config.FilterTypeExclude, Patterns: []string{"healthcheck", "refused$"}},
			want: []bool{true, false, false},
		},
		{
			name: "PatternOnTarget",
			cfg:  config.FilterConfig{Field: config.FilterFieldTarget, Patterns: []string{"::upstream$"}},
			want: []bool{false, true, false},
		},
		{
			name: "PatternOnLocation",
			cfg:  config.FilterConfig{Field: config.FilterFieldLocation, Patterns: []string{`http\.rs:42`}},
			want: []bool{true, false, false},
		},
		{
			name: "PatternOnLine",
			cfg:  config.FilterConfig{Field: config.FilterFieldLine, Patterns: []string{`^db DEBUG`}},
			want: []bool{false, false, true},
		},
		{
			name: "AllCriteriaMustHold",
			cfg: config.FilterConfig{
				Type:     config.FilterTypeExclude,
				Targets:  []string{"proxy"},
				MinLevel: "info",
				Patterns: []string{"served"},
			},
			want: []bool{false, true, true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFilter(tc.cfg)
			require.NoError(t, err)
			got := []bool{f.Allow(served), f.Allow(failed), f.Allow(probe)}
			assert.Equal(t, tc.want, got)
		})
	}
}
