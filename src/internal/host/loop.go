// FILE: logbridge/src/internal/host/loop.go
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
)

var (
	ErrLoopClosed     = errors.New("host loop closed")
	ErrLoopNotStarted = errors.New("host loop not started")
)

// Handler processes records on the host loop goroutine
type Handler interface {
	Handle(rec core.Record) error
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc func(rec core.Record) error

func (f HandlerFunc) Handle(rec core.Record) error {
	return f(rec)
}

type request struct {
	rec core.Record
	ack chan error
}

// Loop is a single-threaded execution context. Records handed to Accept
// are processed one at a time on the loop goroutine, and Accept returns
// only after the handler has finished with that record. The handler must
// never call back into anything that feeds this loop.
type Loop struct {
	handler   Handler
	requests  chan request
	done      chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	wg        sync.WaitGroup
	startTime time.Time
	logger    *log.Logger

	// Statistics
	totalHandled atomic.Uint64
	totalFailed  atomic.Uint64
	totalPanics  atomic.Uint64
	lastHandled  atomic.Value // time.Time
}

// NewLoop creates a loop around handler. Call Start before registering it.
func NewLoop(handler Handler, logger *log.Logger) *Loop {
	l := &Loop{
		handler:   handler,
		requests:  make(chan request),
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
	}
	l.lastHandled.Store(time.Time{})
	return l
}

// Start launches the loop goroutine. The loop stops when ctx is cancelled
// or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	if l.handler == nil {
		return fmt.Errorf("host loop requires a handler")
	}
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("host loop already started")
	}

	l.wg.Add(1)
	go l.run(ctx)

	l.logger.Info("msg", "Host loop started", "component", "host_loop")
	return nil
}

// Stop terminates the loop and waits for the in-flight record, if any
func (l *Loop) Stop() {
	l.close()
	l.wg.Wait()
	l.logger.Info("msg", "Host loop stopped",
		"component", "host_loop",
		"total_handled", l.totalHandled.Load())
}

func (l *Loop) close() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()

	for {
		select {
		case req := <-l.requests:
			// Every received request is acked before the loop can exit
			req.ack <- l.handle(req.rec)

		case <-ctx.Done():
			l.logger.Debug("msg", "Host loop stopping due to context cancellation",
				"component", "host_loop")
			l.close()
			return

		case <-l.done:
			return
		}
	}
}

func (l *Loop) handle(rec core.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.totalPanics.Add(1)
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			l.totalFailed.Add(1)
			l.logger.Error("msg", "Host handler failed",
				"component", "host_loop",
				"target", rec.Target(),
				"level", rec.Level().String(),
				"error", err)
			return
		}
		l.totalHandled.Add(1)
		l.lastHandled.Store(time.Now())
	}()

	return l.handler.Handle(rec)
}

// Accept hands rec to the loop and blocks until it has been handled,
// returning the handler's error. There is no timeout. If the loop has
// stopped before taking the record, ErrLoopClosed is returned.
func (l *Loop) Accept(rec core.Record) error {
	req := request{rec: rec, ack: make(chan error, 1)}

	select {
	case l.requests <- req:
	case <-l.done:
		return ErrLoopClosed
	}

	return <-req.ack
}

// Validate reports whether the loop can currently accept records
func (l *Loop) Validate() error {
	if l.handler == nil {
		return fmt.Errorf("host loop has no handler")
	}
	if !l.started.Load() {
		return ErrLoopNotStarted
	}
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
		return nil
	}
}

// GetStats returns loop statistics
func (l *Loop) GetStats() map[string]any {
	lastHandled, _ := l.lastHandled.Load().(time.Time)

	running := l.Validate() == nil
	return map[string]any{
		"running":       running,
		"start_time":    l.startTime,
		"last_handled":  lastHandled,
		"total_handled": l.totalHandled.Load(),
		"total_failed":  l.totalFailed.Load(),
		"total_panics":  l.totalPanics.Load(),
	}
}
