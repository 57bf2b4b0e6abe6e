// FILE: logbridge/src/internal/bridge/producer.go
package bridge

import (
	"fmt"
	"runtime"

	"logbridge/src/internal/core"
)

// Producer emits records for one target and records the caller's location
type Producer struct {
	bridge *Bridge
	target string
}

// For returns a producer emitting under target
func (b *Bridge) For(target string) *Producer {
	return &Producer{bridge: b, target: target}
}

// Target returns the producer's target
func (p *Producer) Target() string {
	return p.target
}

// Enabled reports whether records at level would currently be forwarded
func (p *Producer) Enabled(level core.Level) bool {
	return p.bridge.Enabled(p.target, level)
}

func (p *Producer) Trace(msg string) { p.emit(core.LevelTrace, msg) }
func (p *Producer) Debug(msg string) { p.emit(core.LevelDebug, msg) }
func (p *Producer) Info(msg string)  { p.emit(core.LevelInfo, msg) }
func (p *Producer) Warn(msg string)  { p.emit(core.LevelWarn, msg) }
func (p *Producer) Error(msg string) { p.emit(core.LevelError, msg) }

func (p *Producer) Tracef(format string, args ...any) { p.emitf(core.LevelTrace, format, args...) }
func (p *Producer) Debugf(format string, args ...any) { p.emitf(core.LevelDebug, format, args...) }
func (p *Producer) Infof(format string, args ...any)  { p.emitf(core.LevelInfo, format, args...) }
func (p *Producer) Warnf(format string, args ...any)  { p.emitf(core.LevelWarn, format, args...) }
func (p *Producer) Errorf(format string, args ...any) { p.emitf(core.LevelError, format, args...) }

// emit and emitf must be called directly from the exported helpers so the
// caller frame is always two levels up.
func (p *Producer) emit(level core.Level, msg string) {
	if !p.Enabled(level) {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "", 0
	}
	p.bridge.Emit(core.NewRecordAt(level, p.target, msg, file, line))
}

func (p *Producer) emitf(level core.Level, format string, args ...any) {
	if !p.Enabled(level) {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "", 0
	}
	p.bridge.Emit(core.NewRecordAt(level, p.target, fmt.Sprintf(format, args...), file, line))
}
