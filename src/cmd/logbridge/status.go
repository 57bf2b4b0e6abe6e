// FILE: logbridge/src/cmd/logbridge/status.go
package main

import (
	"context"
	"time"

	"logbridge/src/internal/service"
	"logbridge/src/internal/sink"
)

// Periodically logs service status
func statusReporter(ctx context.Context, svc *service.Service, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("msg", "Panic in status reporter",
							"component", "status_reporter",
							"panic", r)
					}
				}()
				logger.Info(statusFields(svc.GetStats())...)
			}()
		}
	}
}

// statusFields flattens service stats into logger key/value pairs
func statusFields(stats map[string]any) []any {
	fields := []any{
		"msg", "Status report",
		"component", "status_reporter",
	}

	if uptime, ok := stats["uptime_seconds"].(int); ok {
		fields = append(fields, "uptime_seconds", uptime)
	}

	if b, ok := stats["bridge"].(map[string]any); ok {
		for _, key := range []string{"total_emitted", "total_filtered", "total_dropped", "total_delivered", "total_failed"} {
			if v, ok := b[key].(uint64); ok {
				fields = append(fields, "bridge_"+key, v)
			}
		}
	}

	if d, ok := stats["dispatcher"].(map[string]any); ok {
		if v, ok := d["total_errors"].(uint64); ok {
			fields = append(fields, "sink_errors", v)
		}
		if sinks, ok := d["sinks"].(map[string]any); ok {
			var conns int64
			for _, s := range sinks {
				entry, _ := s.(map[string]any)
				if st, ok := entry["stats"].(sink.SinkStats); ok {
					conns += st.ActiveConnections
				}
			}
			if conns > 0 {
				fields = append(fields, "stream_clients", conns)
			}
		}
	}

	if sources, ok := stats["sources"].(map[string]any); ok {
		for name, s := range sources {
			entry, _ := s.(map[string]any)
			if v, ok := entry["total_records"].(uint64); ok {
				fields = append(fields, name+"_records", v)
			}
		}
	}

	return fields
}
