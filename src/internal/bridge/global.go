// FILE: logbridge/src/internal/bridge/global.go
package bridge

import (
	"sync"

	"logbridge/src/internal/core"
)

var (
	defaultOnce   sync.Once
	defaultBridge *Bridge
)

// Default returns the process-wide bridge, constructing it on first use
func Default() *Bridge {
	defaultOnce.Do(func() {
		defaultBridge = New()
	})
	return defaultBridge
}

// Install installs the process-wide bridge
func Install() error {
	return Default().Install()
}

// Register sets the consumer of the process-wide bridge
func Register(c Consumer) error {
	return Default().Register(c)
}

// Emit forwards rec through the process-wide bridge
func Emit(rec core.Record) {
	Default().Emit(rec)
}

// Log emits through the process-wide bridge
func Log(level core.Level, target, message, file string, line int) {
	Default().Log(level, target, message, file, line)
}

// For returns a producer on the process-wide bridge
func For(target string) *Producer {
	return Default().For(target)
}
