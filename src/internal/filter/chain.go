// FILE: logbridge/src/internal/filter/chain.go
package filter

import (
	"fmt"
	"sync/atomic"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
)

// Chain is the ordered filter list of one sink. A record reaches the sink
// only if every filter allows it; the first rejecting filter is charged.
type Chain struct {
	filters []*Filter
	seen    atomic.Uint64
	passed  atomic.Uint64
}

// NewChain compiles configs in order; errors carry the filter index
func NewChain(configs []config.FilterConfig, logger *log.Logger) (*Chain, error) {
	c := &Chain{filters: make([]*Filter, len(configs))}
	for i, cfg := range configs {
		f, err := NewFilter(cfg)
		if err != nil {
			return nil, fmt.Errorf("filter[%d]: %w", i, err)
		}
		c.filters[i] = f
	}

	logger.Debug("msg", "Filter chain compiled",
		"component", "filter_chain",
		"filters", len(c.filters))
	return c, nil
}

// Apply reports whether rec passes the chain. An empty chain passes all.
func (c *Chain) Apply(rec core.Record) bool {
	c.seen.Add(1)
	for _, f := range c.filters {
		if !f.Allow(rec) {
			f.rejected.Add(1)
			return false
		}
	}
	c.passed.Add(1)
	return true
}

func (c *Chain) Len() int {
	return len(c.filters)
}

func (c *Chain) GetStats() map[string]any {
	filters := make([]map[string]any, len(c.filters))
	for i, f := range c.filters {
		filters[i] = f.describe()
	}
	return map[string]any{
		"filter_count": len(c.filters),
		"seen":         c.seen.Load(),
		"passed":       c.passed.Load(),
		"filters":      filters,
	}
}
