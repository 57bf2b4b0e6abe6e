// FILE: logbridge/src/internal/sink/file.go
package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
	"logbridge/src/internal/format"

	"github.com/lixenwraith/log"
)

// Writes records to files with rotation
type FileSink struct {
	config    config.FileSinkOptions
	writer    *log.Logger // Internal logger instance for file writing
	startTime time.Time
	logger    *log.Logger // Application logger
	formatter format.Formatter

	// Statistics
	totalProcessed atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// Creates a new file sink
func NewFileSink(opts config.FileSinkOptions, logger *log.Logger, formatter format.Formatter) (*FileSink, error) {
	if opts.Directory == "" {
		opts.Directory = "./"
		logger.Warn("msg", "No directory provided, current directory will be used",
			"component", "file_sink")
	}
	if opts.Name == "" {
		opts.Name = "logbridge.output"
		logger.Warn("msg", "No filename provided, default will be used",
			"component", "file_sink",
			"name", opts.Name)
	}

	// Configuration for the internal log writer
	writerConfig := log.DefaultConfig()
	writerConfig.Directory = opts.Directory
	writerConfig.Name = opts.Name
	writerConfig.EnableConsole = false // File only
	writerConfig.ShowTimestamp = false // Formatter already renders timestamps
	writerConfig.ShowLevel = false     // and levels

	if opts.MaxSizeMB > 0 {
		writerConfig.MaxSizeKB = opts.MaxSizeMB * 1000
	}
	if opts.MaxTotalSizeMB >= 0 {
		writerConfig.MaxTotalSizeKB = opts.MaxTotalSizeMB * 1000
	}
	if opts.RetentionHours > 0 {
		writerConfig.RetentionPeriodHrs = opts.RetentionHours
	}
	if opts.MinDiskFreeMB > 0 {
		writerConfig.MinDiskFreeKB = opts.MinDiskFreeMB * 1000
	}

	writer := log.NewLogger()
	if err := writer.ApplyConfig(writerConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize file writer: %w", err)
	}

	fs := &FileSink{
		config:    opts,
		writer:    writer,
		startTime: time.Now(),
		logger:    logger,
		formatter: formatter,
	}
	fs.lastProcessed.Store(time.Time{})

	return fs, nil
}

func (fs *FileSink) Start(ctx context.Context) error {
	if err := fs.writer.Start(); err != nil {
		return fmt.Errorf("failed to start file writer: %w", err)
	}
	fs.logger.Info("msg", "File sink started",
		"component", "file_sink",
		"directory", fs.config.Directory,
		"name", fs.config.Name)
	return nil
}

func (fs *FileSink) Stop() {
	// Shutdown flushes pending writes
	if err := fs.writer.Shutdown(2 * time.Second); err != nil {
		fs.logger.Error("msg", "Error shutting down file writer",
			"component", "file_sink",
			"error", err)
	}

	fs.logger.Info("msg", "File sink stopped",
		"component", "file_sink")
}

func (fs *FileSink) Handle(rec core.Record) error {
	fs.totalProcessed.Add(1)
	fs.lastProcessed.Store(time.Now())

	formatted, err := fs.formatter.Format(rec)
	if err != nil {
		fs.logger.Error("msg", "Failed to format record",
			"component", "file_sink",
			"error", err)
		return nil
	}

	// String, not []byte, so the writer does not hex encode; it adds the newline
	fs.writer.Message(string(bytes.TrimSuffix(formatted, []byte{'\n'})))
	return nil
}

func (fs *FileSink) GetStats() SinkStats {
	lastProc, _ := fs.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:           "file",
		TotalProcessed: fs.totalProcessed.Load(),
		StartTime:      fs.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"directory": fs.config.Directory,
			"name":      fs.config.Name,
			"format":    fs.formatter.Name(),
		},
	}
}
