// FILE: logbridge/src/internal/source/http.go
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"logbridge/src/internal/auth"
	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
	"logbridge/src/internal/limit"
	"logbridge/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/valyala/fasthttp"
)

// HTTPSource receives records via HTTP POST. Every request handler is an
// independent producer and is answered only after its records were handled.
type HTTPSource struct {
	config        config.HTTPSourceOptions
	emitter       Emitter
	diag          diagnostics
	server        *fasthttp.Server
	stopOnce      sync.Once
	limiter       *limit.Limiter
	authenticator *auth.Authenticator
	logger        *log.Logger

	// Statistics
	totalRecords    atomic.Uint64
	invalidRequests atomic.Uint64
	totalRequests   atomic.Uint64
	startTime       time.Time
	lastRecordTime  atomic.Value // time.Time
	authFailures    atomic.Uint64
	rateLimited     atomic.Uint64
}

// NewHTTPSource creates a new HTTP server source
func NewHTTPSource(opts config.HTTPSourceOptions, emitter Emitter, namespace string, logger *log.Logger) (*HTTPSource, error) {
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("http source requires valid port, got %d", opts.Port)
	}
	if opts.Host == "" {
		opts.Host = "0.0.0.0"
	}
	if opts.IngestPath == "" {
		opts.IngestPath = "/emit"
	}
	if opts.DefaultTarget == "" {
		opts.DefaultTarget = "http"
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = core.MaxClientBufferSize
	}

	h := &HTTPSource{
		config:    opts,
		emitter:   emitter,
		diag:      newDiagnostics(emitter, namespace, "http"),
		startTime: time.Now(),
		logger:    logger,
	}
	h.lastRecordTime.Store(time.Time{})

	authenticator, err := auth.New(opts.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}
	h.authenticator = authenticator

	limiter, err := limit.NewLimiter(opts.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	h.limiter = limiter

	return h, nil
}

func (h *HTTPSource) Start() error {
	h.server = &fasthttp.Server{
		Name:               version.ServerName(),
		Handler:            h.requestHandler,
		Logger:             compat.NewFastHTTPAdapter(h.logger),
		MaxRequestBodySize: int(h.config.MaxBodySize),
	}

	addr := fmt.Sprintf("%s:%d", h.config.Host, h.config.Port)

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("msg", "HTTP source server starting",
			"component", "http_source",
			"host", h.config.Host,
			"port", h.config.Port,
			"ingest_path", h.config.IngestPath)

		if err := h.server.ListenAndServe(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http source on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
		h.diag.emit(core.LevelInfo, "HTTP source listening on %s%s", addr, h.config.IngestPath)
		return nil
	}
}

func (h *HTTPSource) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info("msg", "Stopping HTTP source",
			"component", "http_source")

		if h.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := h.server.ShutdownWithContext(ctx); err != nil {
				h.logger.Warn("msg", "HTTP source shutdown error",
					"component", "http_source",
					"error", err)
			}
		}

		h.diag.emit(core.LevelInfo, "HTTP source stopped after %d records", h.totalRecords.Load())
		h.logger.Info("msg", "HTTP source stopped",
			"component", "http_source")
	})
}

func (h *HTTPSource) GetStats() SourceStats {
	lastRecord, _ := h.lastRecordTime.Load().(time.Time)

	return SourceStats{
		Type:           "http",
		TotalRecords:   h.totalRecords.Load(),
		InvalidRecords: h.invalidRequests.Load(),
		StartTime:      h.startTime,
		LastRecordTime: lastRecord,
		Details: map[string]any{
			"port":           h.config.Port,
			"ingest_path":    h.config.IngestPath,
			"total_requests": h.totalRequests.Load(),
			"auth_failures":  h.authFailures.Load(),
			"rate_limited":   h.rateLimited.Load(),
			"auth":           h.authenticator.GetStats(),
			"rate_limit":     h.limiter.GetStats(),
		},
	}
}

func (h *HTTPSource) requestHandler(ctx *fasthttp.RequestCtx) {
	h.totalRequests.Add(1)
	remoteAddr := ctx.RemoteAddr().String()

	if !h.limiter.Allow(remoteAddr) {
		h.rateLimited.Add(1)
		ctx.Response.Header.Set("Retry-After", "1")
		writeJSON(ctx, fasthttp.StatusTooManyRequests, map[string]any{
			"error": "Too many requests",
		})
		return
	}

	path := string(ctx.Path())

	if h.config.StatusPath != "" && path == h.config.StatusPath {
		writeJSON(ctx, fasthttp.StatusOK, h.status())
		return
	}

	if path != h.config.IngestPath {
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]any{
			"error": "Not Found",
			"hint":  fmt.Sprintf("POST records to %s", h.config.IngestPath),
		})
		return
	}

	if !ctx.IsPost() {
		ctx.Response.Header.Set("Allow", "POST")
		writeJSON(ctx, fasthttp.StatusMethodNotAllowed, map[string]any{
			"error": "Method Not Allowed",
		})
		return
	}

	authHeader := string(ctx.Request.Header.Peek("Authorization"))
	if _, err := h.authenticator.AuthenticateHTTP(authHeader, remoteAddr); err != nil {
		h.authFailures.Add(1)
		h.diag.emit(core.LevelWarn, "HTTP authentication failed for %s: %v", remoteAddr, err)
		if challenge := auth.Challenge(h.config.Auth); challenge != "" {
			ctx.Response.Header.Set("WWW-Authenticate", challenge)
		}
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]any{
			"error": "Unauthorized",
		})
		return
	}

	records, err := parseRecords(ctx.PostBody(), h.config.DefaultTarget)
	if err != nil {
		h.invalidRequests.Add(1)
		writeJSON(ctx, fasthttp.StatusBadRequest, map[string]any{
			"error": fmt.Sprintf("Invalid record format: %v", err),
		})
		return
	}

	for _, rec := range records {
		h.totalRecords.Add(1)
		h.lastRecordTime.Store(time.Now())
		h.emitter.Emit(rec)
	}

	writeJSON(ctx, fasthttp.StatusAccepted, map[string]any{
		"accepted": len(records),
	})
}

// parseRecords accepts a JSON object, a JSON array or newline-delimited
// JSON. The request is rejected as a whole if any record is invalid.
func parseRecords(body []byte, defaultTarget string) ([]core.Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty request body")
	}

	if body[0] == '[' {
		var array []json.RawMessage
		if err := json.Unmarshal(body, &array); err != nil {
			return nil, err
		}
		if len(array) == 0 {
			return nil, fmt.Errorf("empty record array")
		}
		records := make([]core.Record, 0, len(array))
		for i, raw := range array {
			rec, err := core.DecodeRecord(raw, defaultTarget)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			records = append(records, rec)
		}
		return records, nil
	}

	// A single object, possibly spanning lines
	if json.Valid(body) {
		rec, err := core.DecodeRecord(body, defaultTarget)
		if err != nil {
			return nil, err
		}
		return []core.Record{rec}, nil
	}

	// One object per line
	var records []core.Record
	for i, line := range bytes.Split(body, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec, err := core.DecodeRecord(line, defaultTarget)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (h *HTTPSource) status() map[string]any {
	return map[string]any{
		"service": "LogBridge",
		"version": version.Short(),
		"server": map[string]any{
			"type":           "http_source",
			"port":           h.config.Port,
			"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		},
		"endpoints": map[string]string{
			"ingest": h.config.IngestPath,
			"status": h.config.StatusPath,
		},
		"statistics": map[string]any{
			"total_records":    h.totalRecords.Load(),
			"total_requests":   h.totalRequests.Load(),
			"invalid_requests": h.invalidRequests.Load(),
			"auth_failures":    h.authFailures.Load(),
			"rate_limited":     h.rateLimited.Load(),
		},
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(body)
}
