// FILE: logbridge/src/internal/source/tcp.go
package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"logbridge/src/internal/auth"
	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
	"logbridge/src/internal/limit"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/panjf2000/gnet/v2"
)

const tcpAuthTimeout = 30 * time.Second

// Receives newline-delimited JSON records over TCP. Each gnet event loop
// emits on behalf of the connections it serves, so a slow host stalls only
// that loop.
type TCPSource struct {
	config        config.TCPSourceOptions
	emitter       Emitter
	diag          diagnostics
	server        *tcpSourceServer
	done          chan struct{}
	stopOnce      sync.Once
	engine        *gnet.Engine
	engineMu      sync.Mutex
	wg            sync.WaitGroup
	limiter       *limit.Limiter
	authenticator *auth.Authenticator
	logger        *log.Logger

	// Statistics
	totalRecords   atomic.Uint64
	invalidRecords atomic.Uint64
	rejectedConns  atomic.Uint64
	activeConns    atomic.Int64
	startTime      time.Time
	lastRecordTime atomic.Value // time.Time
	authFailures   atomic.Uint64
	authSuccesses  atomic.Uint64
}

// Creates a new TCP server source
func NewTCPSource(opts config.TCPSourceOptions, emitter Emitter, namespace string, logger *log.Logger) (*TCPSource, error) {
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("tcp source requires valid port, got %d", opts.Port)
	}
	if opts.Host == "" {
		opts.Host = "0.0.0.0"
	}
	if opts.DefaultTarget == "" {
		opts.DefaultTarget = "tcp"
	}

	t := &TCPSource{
		config:    opts,
		emitter:   emitter,
		diag:      newDiagnostics(emitter, namespace, "tcp"),
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
	}
	t.lastRecordTime.Store(time.Time{})

	authenticator, err := auth.New(opts.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}
	t.authenticator = authenticator

	limiter, err := limit.NewLimiter(opts.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	t.limiter = limiter

	t.server = &tcpSourceServer{
		source:  t,
		clients: make(map[gnet.Conn]*tcpClient),
	}

	return t, nil
}

func (t *TCPSource) Start() error {
	addr := fmt.Sprintf("tcp://%s:%d", t.config.Host, t.config.Port)

	// Start gnet server
	errChan := make(chan error, 1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.logger.Info("msg", "TCP source server starting",
			"component", "tcp_source",
			"port", t.config.Port)

		err := gnet.Run(t.server, addr,
			gnet.WithLogger(compat.NewGnetAdapter(t.logger)),
			gnet.WithMulticore(true),
			gnet.WithReusePort(true),
		)
		if err != nil {
			t.logger.Error("msg", "TCP source server failed",
				"component", "tcp_source",
				"port", t.config.Port,
				"error", err)
		}
		errChan <- err
	}()

	// Wait briefly for server to start or fail
	select {
	case err := <-errChan:
		t.wg.Wait()
		return fmt.Errorf("tcp source on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
		t.logger.Info("msg", "TCP source started",
			"component", "tcp_source",
			"port", t.config.Port)
		t.diag.emit(core.LevelInfo, "TCP source listening on %s:%d", t.config.Host, t.config.Port)
		return nil
	}
}

func (t *TCPSource) Stop() {
	t.stopOnce.Do(func() {
		t.logger.Info("msg", "Stopping TCP source",
			"component", "tcp_source")
		close(t.done)

		t.engineMu.Lock()
		engine := t.engine
		t.engineMu.Unlock()

		if engine != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := engine.Stop(ctx); err != nil {
				t.logger.Warn("msg", "TCP engine stop error",
					"component", "tcp_source",
					"error", err)
			}
		}

		t.wg.Wait()

		t.diag.emit(core.LevelInfo, "TCP source stopped after %d records", t.totalRecords.Load())
		t.logger.Info("msg", "TCP source stopped",
			"component", "tcp_source")
	})
}

func (t *TCPSource) GetStats() SourceStats {
	lastRecord, _ := t.lastRecordTime.Load().(time.Time)

	return SourceStats{
		Type:           "tcp",
		TotalRecords:   t.totalRecords.Load(),
		InvalidRecords: t.invalidRecords.Load(),
		StartTime:      t.startTime,
		LastRecordTime: lastRecord,
		Details: map[string]any{
			"port":                 t.config.Port,
			"active_connections":   t.activeConns.Load(),
			"rejected_connections": t.rejectedConns.Load(),
			"auth_failures":        t.authFailures.Load(),
			"auth_successes":       t.authSuccesses.Load(),
			"auth":                 t.authenticator.GetStats(),
			"rate_limit":           t.limiter.GetStats(),
		},
	}
}

func (t *TCPSource) publish(rec core.Record) {
	t.totalRecords.Add(1)
	t.lastRecordTime.Store(time.Now())
	t.emitter.Emit(rec)
}

// Represents a connected TCP client
type tcpClient struct {
	decoder       *lineDecoder
	authenticated bool
	authTimeout   time.Time
	session       *auth.Session
}

func (t *TCPSource) newClient() *tcpClient {
	client := &tcpClient{
		decoder:       newLineDecoder(t.config.DefaultTarget),
		authenticated: t.authenticator == nil,
	}
	if t.authenticator != nil {
		client.authTimeout = time.Now().Add(tcpAuthTimeout)
	}
	return client
}

// process consumes bytes from one connection: the "AUTH <method> <cred>"
// handshake when required, then records. It returns an optional reply and
// whether the connection must be closed.
func (t *TCPSource) process(client *tcpClient, data []byte, remoteAddr string) (reply []byte, closeConn bool) {
	if !client.authenticated {
		if time.Now().After(client.authTimeout) {
			t.logger.Warn("msg", "Authentication timeout",
				"component", "tcp_source",
				"remote_addr", remoteAddr)
			return nil, true
		}

		if err := client.decoder.write(data); err != nil {
			return nil, true
		}
		line, ok := client.decoder.nextLine()
		if !ok {
			return nil, false
		}

		parts := strings.SplitN(string(line), " ", 3)
		if len(parts) != 3 || parts[0] != "AUTH" {
			t.authFailures.Add(1)
			return []byte("AUTH_FAIL\n"), true
		}

		session, err := t.authenticator.AuthenticateTCP(parts[1], parts[2], remoteAddr)
		if err != nil {
			t.authFailures.Add(1)
			t.diag.emit(core.LevelWarn, "TCP authentication failed for %s: %v", remoteAddr, err)
			return []byte("AUTH_FAIL\n"), true
		}

		t.authSuccesses.Add(1)
		client.authenticated = true
		client.session = session
		t.logger.Info("msg", "TCP client authenticated",
			"component", "tcp_source",
			"remote_addr", remoteAddr,
			"username", session.Username)

		reply = []byte("AUTH_OK\n")
		// Records pipelined behind the AUTH line are already buffered
		data = nil
	}

	records, invalid, err := client.decoder.feed(data)
	if invalid > 0 {
		t.invalidRecords.Add(uint64(invalid))
		t.logger.Debug("msg", "Skipped invalid record lines",
			"component", "tcp_source",
			"remote_addr", remoteAddr,
			"count", invalid)
	}
	for _, rec := range records {
		t.publish(rec)
	}

	if err != nil {
		t.invalidRecords.Add(1)
		t.logger.Warn("msg", "Closing TCP connection",
			"component", "tcp_source",
			"remote_addr", remoteAddr,
			"error", err)
		return reply, true
	}
	return reply, false
}

// Handles gnet events
type tcpSourceServer struct {
	gnet.BuiltinEventEngine
	source  *TCPSource
	clients map[gnet.Conn]*tcpClient
	mu      sync.RWMutex
}

func (s *tcpSourceServer) OnBoot(eng gnet.Engine) gnet.Action {
	// Store engine reference for shutdown
	s.source.engineMu.Lock()
	s.source.engine = &eng
	s.source.engineMu.Unlock()

	s.source.logger.Debug("msg", "TCP source server booted",
		"component", "tcp_source",
		"port", s.source.config.Port)
	return gnet.None
}

func (s *tcpSourceServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	remoteAddr := c.RemoteAddr().String()

	if !s.source.limiter.Allow(remoteAddr) {
		s.source.rejectedConns.Add(1)
		s.source.logger.Warn("msg", "TCP connection rate limited",
			"component", "tcp_source",
			"remote_addr", remoteAddr)
		return nil, gnet.Close
	}

	client := s.source.newClient()
	s.mu.Lock()
	s.clients[c] = client
	s.mu.Unlock()

	newCount := s.source.activeConns.Add(1)
	s.source.logger.Debug("msg", "TCP connection opened",
		"component", "tcp_source",
		"remote_addr", remoteAddr,
		"active_connections", newCount,
		"requires_auth", s.source.authenticator != nil)

	if s.source.authenticator != nil {
		return []byte("AUTH_REQUIRED\n"), gnet.None
	}
	return nil, gnet.None
}

func (s *tcpSourceServer) OnClose(c gnet.Conn, err error) gnet.Action {
	s.mu.Lock()
	client, exists := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()

	if !exists {
		return gnet.None
	}
	if client.session != nil {
		s.source.authenticator.EndSession(client.session.ID)
	}

	newCount := s.source.activeConns.Add(-1)
	s.source.logger.Debug("msg", "TCP connection closed",
		"component", "tcp_source",
		"remote_addr", c.RemoteAddr().String(),
		"active_connections", newCount,
		"max_buffer_seen", client.decoder.maxBufferSeen,
		"error", err)
	return gnet.None
}

func (s *tcpSourceServer) OnTraffic(c gnet.Conn) gnet.Action {
	s.mu.RLock()
	client, exists := s.clients[c]
	s.mu.RUnlock()

	if !exists {
		return gnet.Close
	}

	data, err := c.Next(-1)
	if err != nil {
		s.source.logger.Error("msg", "Error reading from connection",
			"component", "tcp_source",
			"error", err)
		return gnet.Close
	}

	reply, closeConn := s.source.process(client, data, c.RemoteAddr().String())
	if len(reply) > 0 {
		if _, err := c.Write(reply); err != nil {
			return gnet.Close
		}
	}
	if closeConn {
		return gnet.Close
	}
	return gnet.None
}
