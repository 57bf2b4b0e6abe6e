// FILE: logbridge/src/internal/bridge/errors.go
package bridge

import (
	"errors"
	"fmt"

	"logbridge/src/internal/core"
)

var (
	// ErrAlreadyInitialized is returned by every Install after the first.
	// Callers should treat it as success.
	ErrAlreadyInitialized = errors.New("log bridge already initialized")

	// ErrNotInitialized is returned by Register before Install
	ErrNotInitialized = errors.New("log bridge not initialized")

	// ErrInvalidCallback is returned by Register for a nil or broken consumer
	ErrInvalidCallback = errors.New("invalid log consumer")
)

// ConsumerError reports that the registered consumer failed to process a
// record. It is never retried; the bridge hands it to its fatal handler.
type ConsumerError struct {
	Target string
	Level  core.Level
	Err    error
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("log consumer failed on %s record from %q: %v", e.Level, e.Target, e.Err)
}

func (e *ConsumerError) Unwrap() error {
	return e.Err
}
