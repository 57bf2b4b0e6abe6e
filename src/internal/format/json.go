// FILE: logbridge/src/internal/format/json.go
package format

import (
	"encoding/json"
	"fmt"
	"time"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
)

// JSONFormatter produces structured JSON lines from records.
type JSONFormatter struct {
	config config.JSONFormatterOptions
	logger *log.Logger
}

// NewJSONFormatter creates a new JSON formatter; empty field names fall
// back to the defaults.
func NewJSONFormatter(opts config.JSONFormatterOptions, logger *log.Logger) (*JSONFormatter, error) {
	defaults := config.DefaultJSONFormatterOptions()
	if opts.TimestampField == "" {
		opts.TimestampField = defaults.TimestampField
	}
	if opts.LevelField == "" {
		opts.LevelField = defaults.LevelField
	}
	if opts.TargetField == "" {
		opts.TargetField = defaults.TargetField
	}
	if opts.MessageField == "" {
		opts.MessageField = defaults.MessageField
	}
	if opts.LocationField == "" {
		opts.LocationField = defaults.LocationField
	}

	return &JSONFormatter{
		config: opts,
		logger: logger,
	}, nil
}

// Format transforms a single record into a JSON byte slice.
func (f *JSONFormatter) Format(rec core.Record) ([]byte, error) {
	output := map[string]any{
		f.config.TimestampField: rec.Time().Format(time.RFC3339Nano),
		f.config.LevelField:     rec.Level().String(),
		f.config.TargetField:    rec.Target(),
		f.config.MessageField:   rec.Message(),
	}
	if loc, ok := rec.Location(); ok {
		output[f.config.LocationField] = loc.String()
	}

	var result []byte
	var err error
	if f.config.Pretty {
		result, err = json.MarshalIndent(output, "", "  ")
	} else {
		result, err = json.Marshal(output)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return append(result, '\n'), nil
}

// Name returns the formatter's type name.
func (f *JSONFormatter) Name() string {
	return "json"
}
