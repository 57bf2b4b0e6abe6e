// FILE: logbridge/src/internal/source/source.go
package source

import (
	"fmt"
	"time"

	"logbridge/src/internal/core"
)

// Emitter receives records from sources; *bridge.Bridge satisfies it.
// Emit may block until the record has been handled.
type Emitter interface {
	Emit(rec core.Record)
}

// Source is a network producer feeding the bridge
type Source interface {
	// Begins accepting records
	Start() error

	// Gracefully shuts down the source
	Stop()

	// Returns source statistics
	GetStats() SourceStats
}

// Contains statistics about a source
type SourceStats struct {
	Type           string
	TotalRecords   uint64
	InvalidRecords uint64
	StartTime      time.Time
	LastRecordTime time.Time
	Details        map[string]any
}

// diagnostics emits a source's own lifecycle records into the bridge
// under "<namespace>.source.<kind>".
type diagnostics struct {
	emitter Emitter
	target  string
}

func newDiagnostics(emitter Emitter, namespace, kind string) diagnostics {
	if namespace == "" {
		namespace = core.DefaultNamespace
	}
	return diagnostics{
		emitter: emitter,
		target:  namespace + ".source." + kind,
	}
}

func (d diagnostics) emit(level core.Level, format string, args ...any) {
	d.emitter.Emit(core.NewRecord(level, d.target, fmt.Sprintf(format, args...)))
}
