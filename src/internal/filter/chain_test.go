// FILE: logbridge/src/internal/filter/chain_test.go
package filter

import (
	"testing"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	logger := newTestLogger()

	t.Run("EmptyChainPassesAll", func(t *testing.T) {
		chain, err := NewChain(nil, logger)
		require.NoError(t, err)
		assert.Equal(t, 0, chain.Len())
		assert.True(t, chain.Apply(core.NewRecord(core.LevelTrace, "x", "anything")))
	})

	t.Run("FirstRejectingFilterIsCharged", func(t *testing.T) {
		chain, err := NewChain([]config.FilterConfig{
			{Targets: []string{"proxy"}},
			{Type: config.FilterTypeExclude, Patterns: []string{"healthcheck"}},
		}, logger)
		require.NoError(t, err)

		assert.True(t, chain.Apply(core.NewRecord(core.LevelInfo, "proxy", "request served")))
		assert.False(t, chain.Apply(core.NewRecord(core.LevelInfo, "proxy", "healthcheck ok")))
		assert.False(t, chain.Apply(core.NewRecord(core.LevelInfo, "db", "healthcheck ok")))

		stats := chain.GetStats()
		assert.Equal(t, 2, stats["filter_count"])
		assert.Equal(t, uint64(3), stats["seen"])
		assert.Equal(t, uint64(1), stats["passed"])

		filters := stats["filters"].([]map[string]any)
		assert.Equal(t, uint64(1), filters[0]["rejected"])
		assert.Equal(t, uint64(1), filters[1]["rejected"])
		assert.Equal(t, []string{"proxy"}, filters[0]["targets"])
		assert.Equal(t, config.FilterTypeExclude, filters[1]["type"])
	})

	t.Run("InvalidFilterReportsIndex", func(t *testing.T) {
		_, err := NewChain([]config.FilterConfig{
			{Patterns: []string{"ok"}},
			{Patterns: []string{"(unclosed"}},
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "filter[1]")
	})
}
