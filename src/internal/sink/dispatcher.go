// FILE: logbridge/src/internal/sink/dispatcher.go
package sink

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"logbridge/src/internal/core"
	"logbridge/src/internal/filter"

	"github.com/lixenwraith/log"
)

type route struct {
	name  string
	sink  Sink
	chain *filter.Chain
}

// Dispatcher is the host loop handler: it fans each delivered record out
// to every sink whose filter chain accepts it.
type Dispatcher struct {
	routes    []route
	logger    *log.Logger
	startTime time.Time

	// Statistics
	totalHandled  atomic.Uint64
	totalFiltered atomic.Uint64
	totalErrors   atomic.Uint64
}

func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		startTime: time.Now(),
	}
}

// Add registers a sink; a nil chain accepts everything
func (d *Dispatcher) Add(name string, s Sink, chain *filter.Chain) {
	d.routes = append(d.routes, route{name: name, sink: s, chain: chain})
}

// Len returns the number of sinks
func (d *Dispatcher) Len() int {
	return len(d.routes)
}

// Handle delivers rec to every matching sink and returns the first sink
// error after all sinks have been tried.
func (d *Dispatcher) Handle(rec core.Record) error {
	d.totalHandled.Add(1)

	var firstErr error
	for _, r := range d.routes {
		if r.chain != nil && !r.chain.Apply(rec) {
			d.totalFiltered.Add(1)
			continue
		}
		if err := r.sink.Handle(rec); err != nil {
			d.totalErrors.Add(1)
			d.logger.Error("msg", "Sink failed to handle record",
				"component", "dispatcher",
				"sink", r.name,
				"target", rec.Target(),
				"error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("sink %s: %w", r.name, err)
			}
		}
	}
	return firstErr
}

// Start starts all sinks, stopping already started ones on failure
func (d *Dispatcher) Start(ctx context.Context) error {
	for i, r := range d.routes {
		if err := r.sink.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				d.routes[j].sink.Stop()
			}
			return fmt.Errorf("failed to start sink %s: %w", r.name, err)
		}
	}
	return nil
}

// Stop stops all sinks in reverse start order
func (d *Dispatcher) Stop() {
	for i := len(d.routes) - 1; i >= 0; i-- {
		d.routes[i].sink.Stop()
	}
}

func (d *Dispatcher) GetStats() map[string]any {
	sinks := make(map[string]any, len(d.routes))
	for _, r := range d.routes {
		entry := map[string]any{
			"stats": r.sink.GetStats(),
		}
		if r.chain != nil {
			entry["filters"] = r.chain.GetStats()
		}
		sinks[r.name] = entry
	}

	return map[string]any{
		"sink_count":     len(d.routes),
		"total_handled":  d.totalHandled.Load(),
		"total_filtered": d.totalFiltered.Load(),
		"total_errors":   d.totalErrors.Load(),
		"uptime_seconds": int(time.Since(d.startTime).Seconds()),
		"sinks":          sinks,
	}
}
