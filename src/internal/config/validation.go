// FILE: logbridge/src/internal/config/validation.go
package config

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"logbridge/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

// ValidateConfig is the centralized validator for the entire configuration
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateLogConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := validateBridge(&cfg.Bridge); err != nil {
		return fmt.Errorf("bridge config: %w", err)
	}

	if cfg.StatusIntervalSeconds < 0 {
		return fmt.Errorf("status interval cannot be negative: %d", cfg.StatusIntervalSeconds)
	}

	// Track used ports across all listeners
	allPorts := make(map[int64]string)

	if err := validateSinks(&cfg.Sinks, allPorts); err != nil {
		return err
	}

	if err := validateSources(&cfg.Sources, allPorts); err != nil {
		return err
	}

	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	validTargets := map[string]bool{
		"stdout": true, "stderr": true, "split": true, "": true,
	}
	if !validTargets[cfg.Console.Target] {
		return fmt.Errorf("invalid console target: %s", cfg.Console.Target)
	}

	validFormats := map[string]bool{
		"txt": true, "json": true, "": true,
	}
	if !validFormats[cfg.Console.Format] {
		return fmt.Errorf("invalid console format: %s", cfg.Console.Format)
	}

	return nil
}

func validateBridge(cfg *BridgeConfig) error {
	if err := lconfig.NonEmpty(cfg.Namespace); err != nil {
		return fmt.Errorf("namespace must not be empty")
	}

	if _, err := core.ParseLevel(cfg.MinLevel); err != nil {
		return fmt.Errorf("min_level: %w", err)
	}

	if _, err := core.ParseLevel(cfg.Policy.DefaultLevel); err != nil {
		return fmt.Errorf("policy default_level: %w", err)
	}

	seen := make(map[string]bool)
	for i, o := range cfg.Policy.Overrides {
		if err := lconfig.NonEmpty(o.Target); err != nil {
			return fmt.Errorf("policy override[%d]: missing target", i)
		}
		if seen[o.Target] {
			return fmt.Errorf("policy override[%d]: duplicate target '%s'", i, o.Target)
		}
		seen[o.Target] = true

		if _, err := core.ParseLevel(o.Level); err != nil {
			return fmt.Errorf("policy override[%d] '%s': %w", i, o.Target, err)
		}
	}

	return nil
}

func validateSinks(cfg *SinksConfig, allPorts map[int64]string) error {
	if !cfg.Console.Enabled && !cfg.File.Enabled && !cfg.HTTP.Enabled {
		return fmt.Errorf("no sinks enabled")
	}

	if cfg.Console.Enabled {
		switch cfg.Console.Target {
		case "stdout", "stderr", "split":
		default:
			return fmt.Errorf("console sink: invalid target '%s' (valid: stdout, stderr, split)", cfg.Console.Target)
		}
		if err := validateFormat("console sink", &cfg.Console.Format); err != nil {
			return err
		}
		if err := validateFilters("console sink", cfg.Console.Filters); err != nil {
			return err
		}
	}

	if cfg.File.Enabled {
		if err := lconfig.NonEmpty(cfg.File.Directory); err != nil {
			return fmt.Errorf("file sink: directory required")
		}
		if strings.Contains(cfg.File.Directory, "..") {
			return fmt.Errorf("file sink: directory contains path traversal")
		}
		if err := lconfig.NonEmpty(cfg.File.Name); err != nil {
			return fmt.Errorf("file sink: name required")
		}
		if cfg.File.MaxSizeMB < 0 || cfg.File.MaxTotalSizeMB < 0 || cfg.File.RetentionHours < 0 {
			return fmt.Errorf("file sink: sizes and retention cannot be negative")
		}
		if err := validateFormat("file sink", &cfg.File.Format); err != nil {
			return err
		}
		if err := validateFilters("file sink", cfg.File.Filters); err != nil {
			return err
		}
	}

	if cfg.HTTP.Enabled {
		h := &cfg.HTTP
		if err := validateListener("http sink", h.Host, h.Port, allPorts); err != nil {
			return err
		}
		if !strings.HasPrefix(h.StreamPath, "/") || !strings.HasPrefix(h.StatusPath, "/") {
			return fmt.Errorf("http sink: stream and status paths must start with /")
		}
		if h.StreamPath == h.StatusPath {
			return fmt.Errorf("http sink: stream and status paths must differ")
		}
		if h.BufferSize < 1 {
			return fmt.Errorf("http sink: buffer_size must be positive")
		}
		if h.Heartbeat.Enabled && h.Heartbeat.Interval < 1 {
			return fmt.Errorf("http sink: heartbeat interval must be at least 1 second")
		}
		if err := validateAuth("http sink", &h.Auth); err != nil {
			return err
		}
		if err := validateRateLimit("http sink", &h.RateLimit); err != nil {
			return err
		}
		if err := validateFormat("http sink", &h.Format); err != nil {
			return err
		}
		if err := validateFilters("http sink", h.Filters); err != nil {
			return err
		}
	}

	return nil
}

func validateSources(cfg *SourcesConfig, allPorts map[int64]string) error {
	if cfg.TCP.Enabled {
		t := &cfg.TCP
		if err := validateListener("tcp source", t.Host, t.Port, allPorts); err != nil {
			return err
		}
		if err := validateAuth("tcp source", &t.Auth); err != nil {
			return err
		}
		if err := validateRateLimit("tcp source", &t.RateLimit); err != nil {
			return err
		}
	}

	if cfg.HTTP.Enabled {
		h := &cfg.HTTP
		if err := validateListener("http source", h.Host, h.Port, allPorts); err != nil {
			return err
		}
		if !strings.HasPrefix(h.IngestPath, "/") || !strings.HasPrefix(h.StatusPath, "/") {
			return fmt.Errorf("http source: ingest and status paths must start with /")
		}
		if h.IngestPath == h.StatusPath {
			return fmt.Errorf("http source: ingest and status paths must differ")
		}
		if h.MaxBodySize < 1 {
			return fmt.Errorf("http source: max_body_size must be positive")
		}
		if err := validateAuth("http source", &h.Auth); err != nil {
			return err
		}
		if err := validateRateLimit("http source", &h.RateLimit); err != nil {
			return err
		}
	}

	return nil
}

func validateListener(component, host string, port int64, allPorts map[int64]string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s: invalid port %d", component, port)
	}
	if existing, ok := allPorts[port]; ok {
		return fmt.Errorf("%s: port %d already used by %s", component, port, existing)
	}
	allPorts[port] = component

	if host != "" && host != "0.0.0.0" {
		if err := lconfig.IPAddress(host); err != nil {
			return fmt.Errorf("%s: %w", component, err)
		}
	}
	return nil
}

func validateAuth(component string, auth *AuthConfig) error {
	switch auth.Type {
	case "", "none":
		return nil
	case "basic":
		if len(auth.Users) == 0 {
			return fmt.Errorf("%s: basic auth requires at least one user", component)
		}
		for i, u := range auth.Users {
			if err := lconfig.NonEmpty(u.Username); err != nil {
				return fmt.Errorf("%s: user[%d]: missing username", component, i)
			}
			if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
				return fmt.Errorf("%s: user '%s': password_hash must be an argon2id PHC string", component, u.Username)
			}
		}
	case "bearer":
		if len(auth.Tokens) == 0 && auth.JWT.SigningKey == "" {
			return fmt.Errorf("%s: bearer auth requires tokens or a jwt signing_key", component)
		}
	default:
		return fmt.Errorf("%s: invalid auth type '%s' (valid: none, basic, bearer)", component, auth.Type)
	}
	return nil
}

func validateRateLimit(component string, rl *RateLimitConfig) error {
	if !rl.Enabled {
		return nil
	}
	if rl.RequestsPerSecond <= 0 {
		return fmt.Errorf("%s: rate limit requests_per_second must be positive", component)
	}
	if rl.BurstSize < 1 {
		return fmt.Errorf("%s: rate limit burst_size must be positive", component)
	}
	if rl.MaxTrackedIPs < 1 {
		return fmt.Errorf("%s: rate limit max_tracked_ips must be positive", component)
	}
	return nil
}

func validateFormat(component string, f *FormatConfig) error {
	switch f.Type {
	case "", "raw", "json":
	case "text":
		if f.Text.Template != "" {
			// Parse only; helper functions are stubbed
			funcs := template.FuncMap{
				"FmtTime":   func(any) string { return "" },
				"ToUpper":   strings.ToUpper,
				"ToLower":   strings.ToLower,
				"TrimSpace": strings.TrimSpace,
			}
			if _, err := template.New("check").Funcs(funcs).Parse(f.Text.Template); err != nil {
				return fmt.Errorf("%s: invalid text template: %w", component, err)
			}
		}
	default:
		return fmt.Errorf("%s: unknown format type '%s' (valid: raw, text, json)", component, f.Type)
	}
	return nil
}

func validateFilters(component string, filters []FilterConfig) error {
	for i, cfg := range filters {
		prefix := fmt.Sprintf("%s filter[%d]", component, i)

		if cfg.Type != "" && cfg.Type != FilterTypeInclude && cfg.Type != FilterTypeExclude {
			return fmt.Errorf("%s: invalid type '%s' (must be 'include' or 'exclude')", prefix, cfg.Type)
		}

		switch cfg.Field {
		case "", FilterFieldMessage, FilterFieldTarget, FilterFieldLocation, FilterFieldLine:
		default:
			return fmt.Errorf("%s: unknown field '%s' (valid: message, target, location, line)", prefix, cfg.Field)
		}

		if cfg.MinLevel != "" {
			if _, err := core.ParseLevel(cfg.MinLevel); err != nil {
				return fmt.Errorf("%s: %w", prefix, err)
			}
		}

		for j, pattern := range cfg.Patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("%s pattern[%d] '%s': invalid regex: %w", prefix, j, pattern, err)
			}
		}
	}
	return nil
}
