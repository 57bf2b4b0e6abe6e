// FILE: logbridge/src/internal/config/source.go
package config

// SourcesConfig holds the network producers
type SourcesConfig struct {
	TCP  TCPSourceOptions  `toml:"tcp"`
	HTTP HTTPSourceOptions `toml:"http"`
}

type TCPSourceOptions struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int64  `toml:"port"`

	// Target stamped on records that carry none
	DefaultTarget string `toml:"default_target"`

	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type HTTPSourceOptions struct {
	Enabled    bool   `toml:"enabled"`
	Host       string `toml:"host"`
	Port       int64  `toml:"port"`
	IngestPath string `toml:"ingest_path"`
	StatusPath string `toml:"status_path"`

	// Maximum request body in bytes
	MaxBodySize int64 `toml:"max_body_size"`

	DefaultTarget string `toml:"default_target"`

	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}
