// FILE: logbridge/src/internal/service/components.go
package service

import (
	"fmt"

	"logbridge/src/internal/config"
	"logbridge/src/internal/filter"
	"logbridge/src/internal/format"
	"logbridge/src/internal/sink"
	"logbridge/src/internal/source"
)

// createSinks builds the enabled sinks, each with its own formatter
func (s *Service) createSinks() error {
	sinks := s.cfg.Sinks

	if sinks.Console.Enabled {
		formatter, err := format.New(sinks.Console.Format, s.logger)
		if err != nil {
			return fmt.Errorf("console sink: %w", err)
		}
		consoleSink, err := sink.NewConsoleSink(sinks.Console, s.logger, formatter)
		if err != nil {
			return fmt.Errorf("console sink: %w", err)
		}
		if err := s.addSink("console", consoleSink, sinks.Console.Filters); err != nil {
			return err
		}
	}

	if sinks.File.Enabled {
		formatter, err := format.New(sinks.File.Format, s.logger)
		if err != nil {
			return fmt.Errorf("file sink: %w", err)
		}
		fileSink, err := sink.NewFileSink(sinks.File, s.logger, formatter)
		if err != nil {
			return fmt.Errorf("file sink: %w", err)
		}
		if err := s.addSink("file", fileSink, sinks.File.Filters); err != nil {
			return err
		}
	}

	if sinks.HTTP.Enabled {
		formatter, err := format.New(sinks.HTTP.Format, s.logger)
		if err != nil {
			return fmt.Errorf("http sink: %w", err)
		}
		httpSink, err := sink.NewHTTPSink(sinks.HTTP, s.logger, formatter)
		if err != nil {
			return fmt.Errorf("http sink: %w", err)
		}
		if err := s.addSink("http", httpSink, sinks.HTTP.Filters); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) addSink(name string, sk sink.Sink, filters []config.FilterConfig) error {
	var chain *filter.Chain
	if len(filters) > 0 {
		c, err := filter.NewChain(filters, s.logger)
		if err != nil {
			return fmt.Errorf("%s sink filters: %w", name, err)
		}
		chain = c
	}
	s.dispatcher.Add(name, sk, chain)
	return nil
}

// createSources builds the enabled network sources. The bridge is their
// emitter, so every connection handler is an independent producer.
func (s *Service) createSources(namespace string) error {
	srcs := s.cfg.Sources

	if srcs.TCP.Enabled {
		tcpSource, err := source.NewTCPSource(srcs.TCP, s.bridge, namespace, s.logger)
		if err != nil {
			return fmt.Errorf("tcp source: %w", err)
		}
		s.sources = append(s.sources, namedSource{name: "tcp", src: tcpSource})
	}

	if srcs.HTTP.Enabled {
		httpSource, err := source.NewHTTPSource(srcs.HTTP, s.bridge, namespace, s.logger)
		if err != nil {
			return fmt.Errorf("http source: %w", err)
		}
		s.sources = append(s.sources, namedSource{name: "http", src: httpSource})
	}

	return nil
}
