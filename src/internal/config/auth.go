// FILE: logbridge/src/internal/config/auth.go
package config

type AuthConfig struct {
	// Authentication type: "none", "basic", "bearer"
	Type string `toml:"type"`

	// Realm for WWW-Authenticate header
	Realm string `toml:"realm"`

	// Basic auth users with Argon2id PHC password hashes
	Users []BasicAuthUser `toml:"users"`

	// Static bearer tokens
	Tokens []string `toml:"tokens"`

	// JWT validation for bearer auth
	JWT JWTConfig `toml:"jwt"`
}

type BasicAuthUser struct {
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash"`
}

type JWTConfig struct {
	// HMAC signing key; empty disables JWT validation
	SigningKey string `toml:"signing_key"`

	// Expected issuer
	Issuer string `toml:"issuer"`

	// Expected audience
	Audience string `toml:"audience"`
}

// RateLimitConfig is a per-IP token bucket
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int64   `toml:"burst_size"`

	// Upper bound on remembered client IPs
	MaxTrackedIPs int64 `toml:"max_tracked_ips"`
}
