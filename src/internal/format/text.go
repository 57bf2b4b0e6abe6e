// FILE: logbridge/src/internal/format/text.go
package format

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
)

// Produces human-readable text lines using templates
type TextFormatter struct {
	config   config.TextFormatterOptions
	template *template.Template
	logger   *log.Logger
}

// Creates a new text formatter; empty options fall back to the defaults
func NewTextFormatter(opts config.TextFormatterOptions, logger *log.Logger) (*TextFormatter, error) {
	defaults := config.DefaultTextFormatterOptions()
	if opts.Template == "" {
		opts.Template = defaults.Template
	}
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = defaults.TimestampFormat
	}

	f := &TextFormatter{
		config: opts,
		logger: logger,
	}

	// Create template with helper functions
	funcMap := template.FuncMap{
		"FmtTime": func(t time.Time) string {
			return t.Format(f.config.TimestampFormat)
		},
		"ToUpper":   strings.ToUpper,
		"ToLower":   strings.ToLower,
		"TrimSpace": strings.TrimSpace,
	}

	tmpl, err := template.New("record").Funcs(funcMap).Parse(f.config.Template)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	f.template = tmpl
	return f, nil
}

// Formats the record using the template
func (f *TextFormatter) Format(rec core.Record) ([]byte, error) {
	data := map[string]any{
		"Timestamp": rec.Time(),
		"Level":     rec.Level().String(),
		"Target":    rec.Target(),
		"Message":   rec.Message(),
		"File":      "",
		"Line":      0,
	}
	if loc, ok := rec.Location(); ok {
		data["File"] = loc.File
		data["Line"] = loc.Line
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		// Fallback: return a basic formatted line
		f.logger.Debug("msg", "Template execution failed, using fallback",
			"component", "text_formatter",
			"error", err)

		fallback := fmt.Sprintf("[%s] %s %s - %s\n",
			rec.Time().Format(f.config.TimestampFormat),
			rec.Level(),
			rec.Target(),
			rec.Message())
		return []byte(fallback), nil
	}

	// Ensure newline at end
	result := buf.Bytes()
	if len(result) == 0 || result[len(result)-1] != '\n' {
		result = append(result, '\n')
	}

	return result, nil
}

// Returns the formatter name
func (f *TextFormatter) Name() string {
	return "text"
}
