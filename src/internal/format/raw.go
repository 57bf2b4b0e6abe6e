// FILE: logbridge/src/internal/format/raw.go
package format

import (
	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
)

// Outputs the record message as-is with a newline
type RawFormatter struct {
	logger *log.Logger
}

// Creates a new raw formatter
func NewRawFormatter(logger *log.Logger) (*RawFormatter, error) {
	return &RawFormatter{
		logger: logger,
	}, nil
}

// Returns the message with a newline appended
func (f *RawFormatter) Format(rec core.Record) ([]byte, error) {
	return append([]byte(rec.Message()), '\n'), nil
}

// Returns the formatter name
func (f *RawFormatter) Name() string {
	return "raw"
}
