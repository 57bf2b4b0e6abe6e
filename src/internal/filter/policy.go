// FILE: logbridge/src/internal/filter/policy.go
package filter

import (
	"fmt"
	"sort"
	"strings"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
)

type levelOverride struct {
	prefix string
	level  core.Level
}

// Policy is the configurable (target, level) policy installed on the
// bridge. Targets under the namespace are always forwarded. Other targets
// use the level of their longest matching override, or the default level.
type Policy struct {
	namespace    string
	defaultLevel core.Level
	overrides    []levelOverride // longest prefix first
}

// NewPolicy builds a policy from the bridge configuration
func NewPolicy(cfg config.BridgeConfig) (*Policy, error) {
	defaultLevel, err := core.ParseLevel(cfg.Policy.DefaultLevel)
	if err != nil {
		return nil, fmt.Errorf("default level: %w", err)
	}

	p := &Policy{
		namespace:    cfg.Namespace,
		defaultLevel: defaultLevel,
		overrides:    make([]levelOverride, 0, len(cfg.Policy.Overrides)),
	}

	for i, o := range cfg.Policy.Overrides {
		level, err := core.ParseLevel(o.Level)
		if err != nil {
			return nil, fmt.Errorf("override[%d] '%s': %w", i, o.Target, err)
		}
		p.overrides = append(p.overrides, levelOverride{prefix: o.Target, level: level})
	}

	sort.SliceStable(p.overrides, func(i, j int) bool {
		return len(p.overrides[i].prefix) > len(p.overrides[j].prefix)
	})

	return p, nil
}

// Allow implements bridge.Policy
func (p *Policy) Allow(target string, level core.Level) bool {
	if p.namespace != "" && strings.HasPrefix(target, p.namespace) {
		return true
	}
	return level.AtLeast(p.levelFor(target))
}

func (p *Policy) levelFor(target string) core.Level {
	for _, o := range p.overrides {
		if strings.HasPrefix(target, o.prefix) {
			return o.level
		}
	}
	return p.defaultLevel
}

// GetStats returns the effective policy
func (p *Policy) GetStats() map[string]any {
	overrides := make(map[string]string, len(p.overrides))
	for _, o := range p.overrides {
		overrides[o.prefix] = o.level.String()
	}
	return map[string]any{
		"namespace":     p.namespace,
		"default_level": p.defaultLevel.String(),
		"overrides":     overrides,
	}
}
