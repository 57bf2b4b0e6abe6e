// FILE: logbridge/src/internal/sink/http.go
package sink

import (
	"bufio"
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
	"logbridge/src/internal/format"
	"logbridge/src/internal/limit"
	"logbridge/src/internal/version"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/valyala/fasthttp"
)

// Streams delivered records to clients via Server-Sent Events
type HTTPSink struct {
	config config.HTTPSinkOptions

	// Runtime
	input         chan core.Record
	server        *fasthttp.Server
	activeClients atomic.Int64
	startTime     time.Time
	done          chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
	clientWg      sync.WaitGroup
	logger        *log.Logger
	formatter     format.Formatter

	// Broker architecture; clients receive pre-formatted lines
	clients    map[string]chan []byte
	clientsMu  sync.RWMutex
	stopping   bool // guarded by clientsMu
	unregister chan string

	// Security components
	authenticator *auth.Authenticator
	limiter       *limit.Limiter

	// Statistics
	totalProcessed atomic.Uint64
	totalDropped   atomic.Uint64
	slowDrops      atomic.Uint64
	lastProcessed  atomic.Value // time.Time
	authFailures   atomic.Uint64
	authSuccesses  atomic.Uint64
}

// Creates a new HTTP streaming sink
func NewHTTPSink(opts config.HTTPSinkOptions, logger *log.Logger, formatter format.Formatter) (*HTTPSink, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = core.DefaultBufferSize
	}

	h := &HTTPSink{
		config:     opts,
		input:      make(chan core.Record, opts.BufferSize),
		startTime:  time.Now(),
		done:       make(chan struct{}),
		logger:     logger,
		formatter:  formatter,
		clients:    make(map[string]chan []byte),
		unregister: make(chan string),
	}
	h.lastProcessed.Store(time.Time{})

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

func (h *HTTPSink) Start(ctx context.Context) error {
	h.startBroker(ctx)

	h.server = &fasthttp.Server{
		Name:         version.ServerName(),
		Handler:      h.requestHandler,
		Logger:       compat.NewFastHTTPAdapter(h.logger),
		WriteTimeout: time.Duration(h.config.WriteTimeout) * time.Millisecond,
	}

	addr := fmt.Sprintf("%s:%d", h.config.Host, h.config.Port)

	// Run server in separate goroutine to avoid blocking
	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("msg", "HTTP sink server started",
			"component", "http_sink",
			"host", h.config.Host,
			"port", h.config.Port,
			"stream_path", h.config.StreamPath,
			"status_path", h.config.StatusPath)

		if err := h.server.ListenAndServe(addr); err != nil {
			errChan <- err
		}
	}()

	// Check if server started successfully
	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP sink listen on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (h *HTTPSink) startBroker(ctx context.Context) {
	h.wg.Add(1)
	go h.brokerLoop(ctx)
}

// Handle queues a record for the broker. A full queue drops the record
// rather than stalling the host loop.
func (h *HTTPSink) Handle(rec core.Record) error {
	select {
	case h.input <- rec:
	default:
		h.totalDropped.Add(1)
	}
	return nil
}

// Formats each record once and broadcasts it to active clients
func (h *HTTPSink) brokerLoop(ctx context.Context) {
	defer h.wg.Done()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("msg", "Broker loop stopping due to context cancellation",
				"component", "http_sink")
			return
		case <-h.done:
			h.logger.Debug("msg", "Broker loop stopping due to shutdown signal",
				"component", "http_sink")
			return

		case clientID := <-h.unregister:
			// Broker owns channel cleanup
			h.clientsMu.Lock()
			if clientChan, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(clientChan)
				h.logger.Debug("msg", "Unregistered client",
					"component", "http_sink",
					"client_id", clientID)
			}
			h.clientsMu.Unlock()

		case rec := <-h.input:
			h.totalProcessed.Add(1)
			h.lastProcessed.Store(time.Now())

			h.clientsMu.RLock()
			if len(h.clients) == 0 {
				// No buffering without clients
				h.clientsMu.RUnlock()
				continue
			}
			h.clientsMu.RUnlock()

			event, err := h.formatEvent(rec)
			if err != nil {
				h.logger.Error("msg", "Failed to format record",
					"component", "http_sink",
					"target", rec.Target(),
					"error", err)
				continue
			}

			h.broadcast(event)
		}
	}
}

func (h *HTTPSink) broadcast(event []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	slowClients := 0
	for id, ch := range h.clients {
		select {
		case ch <- event:
		default:
			// Client buffer full
			slowClients++
			h.slowDrops.Add(1)
			if slowClients == 1 { // Log only once per broadcast
				h.logger.Debug("msg", "Dropped record for slow client(s)",
					"component", "http_sink",
					"client_id", id,
					"total_clients", len(h.clients))
			}
		}
	}
}

// formatEvent renders a record as one SSE event, one data line per
// formatted line.
func (h *HTTPSink) formatEvent(rec core.Record) ([]byte, error) {
	formatted, err := h.formatter.Format(rec)
	if err != nil {
		return nil, err
	}
	formatted = bytes.TrimSuffix(formatted, []byte{'\n'})

	var buf bytes.Buffer
	for _, line := range bytes.Split(formatted, []byte{'\n'}) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (h *HTTPSink) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info("msg", "Stopping HTTP sink",
			"component", "http_sink")

		h.clientsMu.Lock()
		h.stopping = true
		h.clientsMu.Unlock()

		// Signal broker and client handlers to stop
		close(h.done)

		if h.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := h.server.ShutdownWithContext(ctx); err != nil {
				h.logger.Warn("msg", "HTTP sink server shutdown error",
					"component", "http_sink",
					"error", err)
			}
		}

		h.wg.Wait()
		h.waitClients(2 * time.Second)

		h.clientsMu.Lock()
		for _, ch := range h.clients {
			close(ch)
		}
		h.clients = make(map[string]chan []byte)
		h.clientsMu.Unlock()

		h.logger.Info("msg", "HTTP sink stopped",
			"component", "http_sink")
	})
}

// waitClients bounds the wait for stream writers; a writer fasthttp never
// invoked would otherwise hold Stop forever.
func (h *HTTPSink) waitClients(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		h.clientWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		h.logger.Warn("msg", "Timed out waiting for HTTP stream clients",
			"component", "http_sink",
			"active_clients", h.activeClients.Load())
	}
}

func (h *HTTPSink) GetStats() SinkStats {
	lastProc, _ := h.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:              "http",
		TotalProcessed:    h.totalProcessed.Load(),
		ActiveConnections: h.activeClients.Load(),
		StartTime:         h.startTime,
		LastProcessed:     lastProc,
		Details: map[string]any{
			"port":          h.config.Port,
			"buffer_size":   h.config.BufferSize,
			"queue_dropped": h.totalDropped.Load(),
			"slow_drops":    h.slowDrops.Load(),
			"endpoints": map[string]string{
				"stream": h.config.StreamPath,
				"status": h.config.StatusPath,
			},
			"rate_limit": h.limiter.GetStats(),
			"auth":       h.authStats(),
		},
	}
}

func (h *HTTPSink) authStats() map[string]any {
	stats := h.authenticator.GetStats()
	if h.authenticator != nil {
		stats["failures"] = h.authFailures.Load()
		stats["successes"] = h.authSuccesses.Load()
	}
	return stats
}

func (h *HTTPSink) requestHandler(ctx *fasthttp.RequestCtx) {
	remoteAddr := ctx.RemoteAddr().String()

	if !h.limiter.Allow(remoteAddr) {
		writeJSONError(ctx, fasthttp.StatusTooManyRequests, "Too many requests")
		return
	}

	path := string(ctx.Path())

	// Status endpoint doesn't require auth
	if path == h.config.StatusPath {
		h.handleStatus(ctx)
		return
	}

	if path != h.config.StreamPath {
		writeJSONError(ctx, fasthttp.StatusNotFound, "Not Found")
		return
	}

	authHeader := string(ctx.Request.Header.Peek("Authorization"))
	session, err := h.authenticator.AuthenticateHTTP(authHeader, remoteAddr)
	if err != nil {
		h.authFailures.Add(1)
		if challenge := auth.Challenge(h.config.Auth); challenge != "" {
			ctx.Response.Header.Set("WWW-Authenticate", challenge)
		}
		writeJSONError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.authenticator != nil {
		h.authSuccesses.Add(1)
	}

	h.handleStream(ctx, session)
}

func (h *HTTPSink) handleStream(ctx *fasthttp.RequestCtx, session *auth.Session) {
	remoteAddr := ctx.RemoteAddr().String()

	clientID := uuid.NewString()
	clientChan, ok := h.admitClient(clientID)
	if !ok {
		h.authenticator.EndSession(session.ID)
		writeJSONError(ctx, fasthttp.StatusServiceUnavailable, "Sink is stopping")
		return
	}

	// Set SSE headers
	ctx.Response.Header.Set("Content-Type", "text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	streamFunc := func(w *bufio.Writer) {
		connectCount := h.activeClients.Add(1)
		h.logger.Debug("msg", "HTTP client connected",
			"component", "http_sink",
			"remote_addr", remoteAddr,
			"username", session.Username,
			"auth_method", session.Method,
			"client_id", clientID,
			"active_clients", connectCount)

		defer func() {
			disconnectCount := h.activeClients.Add(-1)
			h.logger.Debug("msg", "HTTP client disconnected",
				"component", "http_sink",
				"remote_addr", remoteAddr,
				"client_id", clientID,
				"active_clients", disconnectCount)

			h.authenticator.EndSession(session.ID)

			// Signal broker to cleanup this client's channel
			select {
			case h.unregister <- clientID:
			case <-h.done:
			}

			h.clientWg.Done()
		}()

		h.streamClient(w, clientID, clientChan, session)
	}

	ctx.SetBodyStreamWriter(streamFunc)
}

// admitClient registers a stream client and counts it in clientWg under the
// same lock Stop takes, so no client is added once Stop has begun waiting.
func (h *HTTPSink) admitClient(clientID string) (chan []byte, bool) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if h.stopping {
		return nil, false
	}
	clientChan := make(chan []byte, h.config.BufferSize)
	h.clients[clientID] = clientChan
	h.clientWg.Add(1)
	return clientChan, true
}

// streamClient writes events to one client until it disconnects, its
// session expires or the sink stops.
func (h *HTTPSink) streamClient(w *bufio.Writer, clientID string, clientChan <-chan []byte, session *auth.Session) {
	connectionInfo := map[string]any{
		"client_id":   clientID,
		"username":    session.Username,
		"auth_method": session.Method,
		"stream_path": h.config.StreamPath,
		"status_path": h.config.StatusPath,
		"buffer_size": h.config.BufferSize,
		"format":      h.formatter.Name(),
	}
	data, _ := json.Marshal(connectionInfo)
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", data)
	if err := w.Flush(); err != nil {
		return
	}

	var tickerChan <-chan time.Time
	if h.config.Heartbeat.Enabled && h.config.Heartbeat.Interval > 0 {
		ticker := time.NewTicker(time.Duration(h.config.Heartbeat.Interval) * time.Second)
		tickerChan = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return
			}
			w.Write(event)
			if err := w.Flush(); err != nil {
				// Client disconnected
				return
			}

		case <-tickerChan:
			if !h.authenticator.ValidateSession(session.ID) {
				fmt.Fprintf(w, "event: disconnect\ndata: {\"reason\":\"session_expired\"}\n\n")
				w.Flush()
				return
			}

			hb, _ := json.Marshal(map[string]any{
				"client_id":      clientID,
				"active_clients": h.activeClients.Load(),
				"uptime_seconds": int(time.Since(h.startTime).Seconds()),
			})
			fmt.Fprintf(w, "event: heartbeat\ndata: %s\n\n", hb)
			if err := w.Flush(); err != nil {
				return
			}

		case <-h.done:
			fmt.Fprintf(w, "event: disconnect\ndata: {\"reason\":\"server_shutdown\"}\n\n")
			w.Flush()
			return
		}
	}
}

func (h *HTTPSink) handleStatus(ctx *fasthttp.RequestCtx) {
	status := map[string]any{
		"service": "LogBridge",
		"version": version.Short(),
		"server": map[string]any{
			"type":           "http_sink",
			"port":           h.config.Port,
			"active_clients": h.activeClients.Load(),
			"buffer_size":    h.config.BufferSize,
			"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		},
		"endpoints": map[string]string{
			"stream": h.config.StreamPath,
			"status": h.config.StatusPath,
		},
		"features": map[string]any{
			"heartbeat": map[string]any{
				"enabled":  h.config.Heartbeat.Enabled,
				"interval": h.config.Heartbeat.Interval,
			},
			"auth":       h.authStats(),
			"rate_limit": h.limiter.GetStats(),
		},
		"statistics": map[string]any{
			"total_processed": h.totalProcessed.Load(),
			"queue_dropped":   h.totalDropped.Load(),
			"slow_drops":      h.slowDrops.Load(),
		},
	}

	ctx.SetContentType("application/json")
	data, _ := json.Marshal(status)
	ctx.SetBody(data)
}

// Returns the current number of active clients
func (h *HTTPSink) GetActiveConnections() int64 {
	return h.activeClients.Load()
}

func writeJSONError(ctx *fasthttp.RequestCtx, status int, message string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(map[string]string{
		"error": message,
	})
}
