// FILE: logbridge/src/internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"logbridge/src/internal/bridge"
	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
	"logbridge/src/internal/filter"
	"logbridge/src/internal/host"
	"logbridge/src/internal/sink"
	"logbridge/src/internal/source"

	"github.com/lixenwraith/log"
)

// Service wires the bridge to its host loop, the sinks behind the loop and
// the network sources feeding the bridge.
type Service struct {
	cfg        *config.Config
	bridge     *bridge.Bridge
	policy     *filter.Policy
	minLevel   core.Level
	dispatcher *sink.Dispatcher
	loop       *host.Loop
	sources    []namedSource
	diag       *bridge.Producer
	fatalCh    chan error
	logger     *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	started   bool
	stopped   bool
	startTime time.Time
}

type namedSource struct {
	name string
	src  source.Source
}

// New builds every configured component without starting any of them.
// A nil bridge selects the process-wide instance.
func New(ctx context.Context, cfg *config.Config, b *bridge.Bridge, logger *log.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("service requires a configuration")
	}
	if b == nil {
		b = bridge.Default()
	}

	namespace := cfg.Bridge.Namespace
	if namespace == "" {
		namespace = core.DefaultNamespace
	}

	policy, err := filter.NewPolicy(cfg.Bridge)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge policy: %w", err)
	}

	// An empty min level keeps the TRACE gate set by Install
	minLevel := core.LevelTrace
	if cfg.Bridge.MinLevel != "" {
		if minLevel, err = core.ParseLevel(cfg.Bridge.MinLevel); err != nil {
			return nil, fmt.Errorf("bridge min level: %w", err)
		}
	}

	// The host loop and sinks must outlive the caller's context so records
	// emitted while sources stop are still delivered; Shutdown ends them.
	serviceCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Service{
		cfg:        cfg,
		bridge:     b,
		policy:     policy,
		minLevel:   minLevel,
		dispatcher: sink.NewDispatcher(logger),
		diag:       b.For(namespace + ".service"),
		fatalCh:    make(chan error, 1),
		logger:     logger,
		ctx:        serviceCtx,
		cancel:     cancel,
	}
	s.loop = host.NewLoop(s.dispatcher, logger)

	if err := s.createSinks(); err != nil {
		cancel()
		return nil, err
	}
	if err := s.createSources(namespace); err != nil {
		cancel()
		return nil, err
	}

	logger.Debug("msg", "Service created",
		"component", "service",
		"sinks", s.dispatcher.Len(),
		"sources", len(s.sources))
	return s, nil
}

// AddSink attaches an additional sink; only valid before Start
func (s *Service) AddSink(name string, sk sink.Sink, filters []config.FilterConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("cannot add sink '%s' to a running service", name)
	}
	return s.addSink(name, sk, filters)
}

// Start installs the bridge, applies the policy, starts the sinks and the
// host loop, registers the loop as the consumer and finally opens sources.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("service already started")
	}
	if s.dispatcher.Len() == 0 {
		return fmt.Errorf("no sinks configured")
	}

	if err := s.bridge.Install(); err != nil && !errors.Is(err, bridge.ErrAlreadyInitialized) {
		return fmt.Errorf("failed to install bridge: %w", err)
	}

	s.bridge.SetMinLevel(s.minLevel)
	s.bridge.SetPolicy(s.policy)
	s.bridge.SetFatalHandler(s.handleFatal)

	if err := s.dispatcher.Start(s.ctx); err != nil {
		return err
	}
	if err := s.loop.Start(s.ctx); err != nil {
		s.dispatcher.Stop()
		return err
	}
	if err := s.bridge.Register(s.loop); err != nil {
		s.loop.Stop()
		s.dispatcher.Stop()
		return fmt.Errorf("failed to register host loop: %w", err)
	}

	for i, ns := range s.sources {
		if err := ns.src.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				s.sources[j].src.Stop()
			}
			s.bridge.Unregister()
			s.loop.Stop()
			s.dispatcher.Stop()
			return fmt.Errorf("failed to start source %s: %w", ns.name, err)
		}
	}

	s.started = true
	s.startTime = time.Now()

	s.logger.Info("msg", "Service started",
		"component", "service",
		"sinks", s.dispatcher.Len(),
		"sources", len(s.sources))
	s.diag.Infof("service started with %d sinks and %d sources", s.dispatcher.Len(), len(s.sources))
	return nil
}

// handleFatal receives consumer failures from the bridge. The first failure
// is published on Fatal; the process is expected to terminate.
func (s *Service) handleFatal(err error) {
	s.logger.Error("msg", "Consumer failure",
		"component", "service",
		"error", err)

	select {
	case s.fatalCh <- err:
	default:
	}
}

// Fatal delivers the first consumer failure reported by the bridge
func (s *Service) Fatal() <-chan error {
	return s.fatalCh
}

// Bridge returns the bridge this service feeds
func (s *Service) Bridge() *bridge.Bridge {
	return s.bridge
}

// Shutdown stops sources first so their last records still reach the
// sinks, then detaches and stops the host loop and the sinks.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		s.cancel()
		return
	}
	s.stopped = true

	s.logger.Info("msg", "Service shutdown initiated", "component", "service")

	var wg sync.WaitGroup
	for _, ns := range s.sources {
		wg.Add(1)
		go func(src source.Source) {
			defer wg.Done()
			src.Stop()
		}(ns.src)
	}
	wg.Wait()

	s.diag.Info("service stopping")

	// Records emitted from here on are dropped instead of failing
	s.bridge.Unregister()
	s.loop.Stop()
	s.dispatcher.Stop()
	s.cancel()

	s.logger.Info("msg", "Service shutdown complete", "component", "service")
}

// GetStats returns statistics of every component
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	startTime := s.startTime
	running := s.started && !s.stopped
	s.mu.Unlock()

	sources := make(map[string]any, len(s.sources))
	for _, ns := range s.sources {
		stats := ns.src.GetStats()
		sources[ns.name] = map[string]any{
			"type":             stats.Type,
			"total_records":    stats.TotalRecords,
			"invalid_records":  stats.InvalidRecords,
			"start_time":       stats.StartTime,
			"last_record_time": stats.LastRecordTime,
			"details":          stats.Details,
		}
	}

	stats := map[string]any{
		"running":    running,
		"bridge":     s.bridge.GetStats(),
		"policy":     s.policy.GetStats(),
		"host_loop":  s.loop.GetStats(),
		"dispatcher": s.dispatcher.GetStats(),
		"sources":    sources,
	}
	if running {
		stats["uptime_seconds"] = int(time.Since(startTime).Seconds())
	}
	return stats
}
