// FILE: logbridge/src/internal/sink/sink.go
package sink

import (
	"context"
	"time"

	"logbridge/src/internal/core"
)

// Sink is a host-side output for delivered records. Handle is only ever
// called from the host loop goroutine.
type Sink interface {
	// Handle writes one record; an error is a consumer failure
	Handle(rec core.Record) error

	// Start begins processing
	Start(ctx context.Context) error

	// Stop gracefully shuts down the sink
	Stop()

	// GetStats returns sink statistics
	GetStats() SinkStats
}

// SinkStats contains statistics about a sink
type SinkStats struct {
	Type              string
	TotalProcessed    uint64
	ActiveConnections int64
	StartTime         time.Time
	LastProcessed     time.Time
	Details           map[string]any
}
