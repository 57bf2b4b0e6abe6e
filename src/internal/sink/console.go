// FILE: logbridge/src/internal/sink/console.go
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
	"logbridge/src/internal/format"

	"github.com/lixenwraith/log"
)

// ConsoleSink writes records to stdout, stderr, or both in split mode
type ConsoleSink struct {
	config    config.ConsoleSinkOptions
	stdout    io.Writer
	stderr    io.Writer
	startTime time.Time
	logger    *log.Logger
	formatter format.Formatter

	// Statistics
	totalProcessed atomic.Uint64
	totalErrors    atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// NewConsoleSink creates a new console sink
func NewConsoleSink(opts config.ConsoleSinkOptions, logger *log.Logger, formatter format.Formatter) (*ConsoleSink, error) {
	switch opts.Target {
	case "":
		opts.Target = "stdout"
	case "stdout", "stderr", "split":
	default:
		return nil, fmt.Errorf("invalid console target: %s", opts.Target)
	}

	s := &ConsoleSink{
		config:    opts,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		startTime: time.Now(),
		logger:    logger,
		formatter: formatter,
	}
	s.lastProcessed.Store(time.Time{})

	return s, nil
}

func (s *ConsoleSink) Start(ctx context.Context) error {
	s.logger.Info("msg", "Console sink started",
		"component", "console_sink",
		"target", s.config.Target,
		"format", s.formatter.Name())
	return nil
}

func (s *ConsoleSink) Stop() {
	s.logger.Info("msg", "Console sink stopped",
		"component", "console_sink")
}

func (s *ConsoleSink) Handle(rec core.Record) error {
	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())

	formatted, err := s.formatter.Format(rec)
	if err != nil {
		s.totalErrors.Add(1)
		s.logger.Error("msg", "Failed to format record for console",
			"component", "console_sink",
			"error", err)
		return nil
	}

	if _, err := s.writerFor(rec.Level()).Write(formatted); err != nil {
		s.totalErrors.Add(1)
		return fmt.Errorf("console write failed: %w", err)
	}
	return nil
}

// Split mode sends WARN and ERROR to stderr, everything else to stdout
func (s *ConsoleSink) writerFor(level core.Level) io.Writer {
	switch s.config.Target {
	case "stderr":
		return s.stderr
	case "split":
		if level.AtLeast(core.LevelWarn) {
			return s.stderr
		}
		return s.stdout
	default:
		return s.stdout
	}
}

func (s *ConsoleSink) GetStats() SinkStats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:           "console",
		TotalProcessed: s.totalProcessed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"target": s.config.Target,
			"format": s.formatter.Name(),
			"errors": s.totalErrors.Load(),
		},
	}
}
