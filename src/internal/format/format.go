// FILE: logbridge/src/internal/format/format.go
package format

import (
	"fmt"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
)

// Formatter defines the interface for transforming a Record into a byte slice.
type Formatter interface {
	// Format takes a Record and returns the formatted line, newline terminated.
	Format(rec core.Record) ([]byte, error)

	// Name returns the formatter type name
	Name() string
}

// New creates a new Formatter based on the provided configuration.
func New(cfg config.FormatConfig, logger *log.Logger) (Formatter, error) {
	// Default to raw if no format specified
	if cfg.Type == "" {
		cfg.Type = "raw"
	}

	switch cfg.Type {
	case "json":
		return NewJSONFormatter(cfg.JSON, logger)
	case "text":
		return NewTextFormatter(cfg.Text, logger)
	case "raw":
		return NewRawFormatter(logger)
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", cfg.Type)
	}
}
