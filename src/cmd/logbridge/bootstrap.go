// FILE: logbridge/src/cmd/logbridge/bootstrap.go
package main

import (
	"context"
	"fmt"
	"strings"

	"logbridge/src/internal/config"
	"logbridge/src/internal/service"
	"logbridge/src/internal/version"

	"github.com/lixenwraith/log"
)

// bootstrapService builds and starts the bridge service on the
// process-wide bridge
func bootstrapService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	svc, err := service.New(ctx, cfg, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	if err := svc.Start(); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}

	displayEndpoints(cfg)

	logger.Info("msg", "LogBridge started",
		"version", version.Short(),
		"namespace", cfg.Bridge.Namespace)
	term.info("LogBridge %s running\n", version.Short())

	return svc, nil
}

// initializeLogger sets up the application logger from configuration
func initializeLogger(cfg *config.Config) error {
	logger = log.NewLogger()

	configArgs, err := loggerArgs(cfg)
	if err != nil {
		return err
	}
	return logger.InitWithDefaults(configArgs...)
}

// loggerArgs translates the [logging] section into logger overrides
func loggerArgs(cfg *config.Config) ([]string, error) {
	var configArgs []string

	if cfg.Quiet {
		return []string{
			"disable_file=true",
			"enable_stdout=false",
			"level=255",
		}, nil
	}

	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout", "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target="+cfg.Logging.Output)

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configArgs = append(configArgs, fileLoggingArgs(cfg.Logging.File)...)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configArgs = append(configArgs, fileLoggingArgs(cfg.Logging.File)...)
		configArgs = append(configArgs, consoleTargetArgs(cfg.Logging.Console)...)

	default:
		return nil, fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, "format="+cfg.Logging.Console.Format)
	}

	return configArgs, nil
}

func fileLoggingArgs(f config.LogFileConfig) []string {
	args := []string{
		fmt.Sprintf("directory=%s", f.Directory),
		fmt.Sprintf("name=%s", f.Name),
		fmt.Sprintf("max_size_mb=%d", f.MaxSizeMB),
		fmt.Sprintf("max_total_size_mb=%d", f.MaxTotalSizeMB),
	}
	if f.RetentionHours > 0 {
		args = append(args, fmt.Sprintf("retention_period_hrs=%.1f", f.RetentionHours))
	}
	return args
}

func consoleTargetArgs(c config.LogConsoleConfig) []string {
	target := c.Target
	if target == "" {
		target = "stderr"
	}
	if target == "split" {
		return []string{"stdout_split_mode=true", "stdout_target=split"}
	}
	return []string{"stdout_target=" + target}
}

func parseLogLevel(level string) (int64, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int64(log.LevelDebug), nil
	case "info":
		return int64(log.LevelInfo), nil
	case "warn", "warning":
		return int64(log.LevelWarn), nil
	case "error":
		return int64(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}

// displayEndpoints logs where the service listens
func displayEndpoints(cfg *config.Config) {
	if h := cfg.Sinks.HTTP; h.Enabled {
		logger.Info("msg", "HTTP stream sink configured",
			"component", "main",
			"listen", fmt.Sprintf("%s:%d", h.Host, h.Port),
			"stream_url", fmt.Sprintf("http://%s:%d%s", displayHost(h.Host), h.Port, h.StreamPath),
			"status_url", fmt.Sprintf("http://%s:%d%s", displayHost(h.Host), h.Port, h.StatusPath),
			"auth_type", h.Auth.Type)
	}
	if f := cfg.Sinks.File; f.Enabled {
		logger.Info("msg", "File sink configured",
			"component", "main",
			"directory", f.Directory,
			"name", f.Name)
	}
	if c := cfg.Sinks.Console; c.Enabled {
		logger.Info("msg", "Console sink configured",
			"component", "main",
			"target", c.Target)
	}
	if t := cfg.Sources.TCP; t.Enabled {
		logger.Info("msg", "TCP source configured",
			"component", "main",
			"listen", fmt.Sprintf("%s:%d", t.Host, t.Port),
			"endpoint", fmt.Sprintf("%s:%d", displayHost(t.Host), t.Port),
			"auth_type", t.Auth.Type)
	}
	if h := cfg.Sources.HTTP; h.Enabled {
		logger.Info("msg", "HTTP source configured",
			"component", "main",
			"listen", fmt.Sprintf("%s:%d", h.Host, h.Port),
			"ingest_url", fmt.Sprintf("http://%s:%d%s", displayHost(h.Host), h.Port, h.IngestPath),
			"auth_type", h.Auth.Type)
	}
}

func displayHost(host string) string {
	if host == "" || host == "0.0.0.0" {
		return "localhost"
	}
	return host
}
