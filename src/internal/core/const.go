// FILE: logbridge/src/internal/core/const.go
package core

// Namespace prefixing the bridge's own diagnostic targets
const DefaultNamespace = "logbridge"

// Argon2id parameters
const (
	Argon2Time    = 3
	Argon2Memory  = 64 * 1024 // 64 MB
	Argon2Threads = 4
	Argon2SaltLen = 16
	Argon2KeyLen  = 32
)

const DefaultTokenLength = 32

// Network ingestion limits
const (
	MaxLineLength       = 1 * 1024 * 1024  // 1MB max per record line
	MaxClientBufferSize = 10 * 1024 * 1024 // 10MB max per TCP client
	DefaultBufferSize   = 1000
)
