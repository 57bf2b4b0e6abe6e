// FILE: logbridge/src/internal/filter/filter.go
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
)

// Filter is one sink-side selection rule. A record matches when it passes
// every criterion the rule sets: a target prefix, a minimum level and at
// least one pattern over the chosen field. A rule with no criteria matches
// nothing and therefore never drops a record.
type Filter struct {
	exclude  bool
	targets  []string
	minLevel core.Level
	byLevel  bool
	field    string
	patterns []*regexp.Regexp

	rejected atomic.Uint64
}

// NewFilter compiles a filter configuration
func NewFilter(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{
		exclude: cfg.Type == config.FilterTypeExclude,
		targets: cfg.Targets,
		field:   cfg.Field,
	}
	if f.field == "" {
		f.field = config.FilterFieldMessage
	}

	if cfg.MinLevel != "" {
		level, err := core.ParseLevel(cfg.MinLevel)
		if err != nil {
			return nil, err
		}
		f.minLevel, f.byLevel = level, true
	}

	for i, pattern := range cfg.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern[%d] '%s': %w", i, pattern, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

func (f *Filter) empty() bool {
	return len(f.targets) == 0 && !f.byLevel && len(f.patterns) == 0
}

// Matches reports whether rec satisfies every criterion of the filter
func (f *Filter) Matches(rec core.Record) bool {
	if len(f.targets) > 0 && !hasAnyPrefix(rec.Target(), f.targets) {
		return false
	}
	if f.byLevel && !rec.Level().AtLeast(f.minLevel) {
		return false
	}
	if len(f.patterns) == 0 {
		return true
	}

	text := f.fieldText(rec)
	for _, re := range f.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Allow reports whether rec survives the filter
func (f *Filter) Allow(rec core.Record) bool {
	if f.empty() {
		return true
	}
	return f.Matches(rec) != f.exclude
}

func (f *Filter) fieldText(rec core.Record) string {
	switch f.field {
	case config.FilterFieldTarget:
		return rec.Target()
	case config.FilterFieldLocation:
		if loc, ok := rec.Location(); ok {
			return loc.String()
		}
		return ""
	case config.FilterFieldLine:
		return rec.Target() + " " + rec.Level().String() + " " + rec.Message()
	default:
		return rec.Message()
	}
}

func hasAnyPrefix(target string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(target, p) {
			return true
		}
	}
	return false
}

func (f *Filter) describe() map[string]any {
	action := config.FilterTypeInclude
	if f.exclude {
		action = config.FilterTypeExclude
	}
	desc := map[string]any{
		"type":     action,
		"field":    f.field,
		"patterns": len(f.patterns),
		"rejected": f.rejected.Load(),
	}
	if len(f.targets) > 0 {
		desc["targets"] = f.targets
	}
	if f.byLevel {
		desc["min_level"] = f.minLevel.String()
	}
	return desc
}
