// FILE: logbridge/src/internal/config/sink.go
package config

// SinksConfig holds the host-side outputs. Every enabled sink receives
// each delivered record that passes its own filters.
type SinksConfig struct {
	Console ConsoleSinkOptions `toml:"console"`
	File    FileSinkOptions    `toml:"file"`
	HTTP    HTTPSinkOptions    `toml:"http"`
}

type ConsoleSinkOptions struct {
	Enabled bool `toml:"enabled"`

	// "stdout", "stderr" or "split" (warn/error to stderr)
	Target string `toml:"target"`

	Format  FormatConfig   `toml:"format"`
	Filters []FilterConfig `toml:"filters"`
}

type FileSinkOptions struct {
	Enabled        bool    `toml:"enabled"`
	Directory      string  `toml:"directory"`
	Name           string  `toml:"name"`
	MaxSizeMB      int64   `toml:"max_size_mb"`
	MaxTotalSizeMB int64   `toml:"max_total_size_mb"`
	RetentionHours float64 `toml:"retention_hours"`
	MinDiskFreeMB  int64   `toml:"min_disk_free_mb"`

	Format  FormatConfig   `toml:"format"`
	Filters []FilterConfig `toml:"filters"`
}

type HTTPSinkOptions struct {
	Enabled    bool   `toml:"enabled"`
	Host       string `toml:"host"`
	Port       int64  `toml:"port"`
	StreamPath string `toml:"stream_path"`
	StatusPath string `toml:"status_path"`

	// Per-client buffer; records for a full client are dropped
	BufferSize int64 `toml:"buffer_size"`

	// Write timeout in milliseconds
	WriteTimeout int64 `toml:"write_timeout_ms"`

	Heartbeat HeartbeatConfig `toml:"heartbeat"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`

	Format  FormatConfig   `toml:"format"`
	Filters []FilterConfig `toml:"filters"`
}

type HeartbeatConfig struct {
	Enabled bool `toml:"enabled"`

	// Interval in seconds
	Interval int64 `toml:"interval_seconds"`
}

// FormatConfig selects and configures a record formatter
type FormatConfig struct {
	// "raw", "text" or "json"
	Type string `toml:"type"`

	Text TextFormatterOptions `toml:"text"`
	JSON JSONFormatterOptions `toml:"json"`
}

type TextFormatterOptions struct {
	Template        string `toml:"template"`
	TimestampFormat string `toml:"timestamp_format"`
}

type JSONFormatterOptions struct {
	Pretty         bool   `toml:"pretty"`
	TimestampField string `toml:"timestamp_field"`
	LevelField     string `toml:"level_field"`
	TargetField    string `toml:"target_field"`
	MessageField   string `toml:"message_field"`
	LocationField  string `toml:"location_field"`
}

// Filter actions and the record fields patterns can match
const (
	FilterTypeInclude = "include"
	FilterTypeExclude = "exclude"

	FilterFieldMessage  = "message"
	FilterFieldTarget   = "target"
	FilterFieldLocation = "location"
	FilterFieldLine     = "line"
)

// FilterConfig selects records by target prefix, minimum level and regex
// patterns over one field. A record matches when every criterion set holds;
// include keeps matching records, exclude drops them.
type FilterConfig struct {
	Type     string   `toml:"type"`
	Targets  []string `toml:"targets"`
	MinLevel string   `toml:"min_level"`
	Field    string   `toml:"field"`
	Patterns []string `toml:"patterns"`
}

// DefaultTextTemplate renders "[time] LEVEL target - message"
const DefaultTextTemplate = "[{{.Timestamp | FmtTime}}] {{.Level}} {{.Target}} - {{.Message}}"

func DefaultTextFormatterOptions() TextFormatterOptions {
	return TextFormatterOptions{
		Template:        DefaultTextTemplate,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

func DefaultJSONFormatterOptions() JSONFormatterOptions {
	return JSONFormatterOptions{
		TimestampField: "timestamp",
		LevelField:     "level",
		TargetField:    "target",
		MessageField:   "message",
		LocationField:  "location",
	}
}
