// FILE: logbridge/src/cmd/logbridge/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"logbridge/src/cmd/logbridge/commands"
	"logbridge/src/internal/config"
	"logbridge/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	// Subcommands run before any configuration is loaded
	router := commands.NewCommandRouter()
	handled, err := router.Route(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if handled {
		os.Exit(0)
	}

	appFlags := parseAppFlags(os.Args[1:])
	term.quiet.Store(appFlags.quiet)

	if appFlags.showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if appFlags.configFile != "" {
		os.Setenv("LOGBRIDGE_CONFIG_FILE", appFlags.configFile)
	}

	cfg, err := config.LoadWithCLI(appFlags.configArgs)
	if err != nil {
		if appFlags.configFile != "" && strings.Contains(err.Error(), "not found") {
			term.exit(2, "Config file not found: %s\n", appFlags.configFile)
		}
		term.exit(1, "Failed to load config: %v\n", err)
	}
	if appFlags.quiet {
		cfg.Quiet = true
	}
	term.quiet.Store(cfg.Quiet)

	if err := initializeLogger(cfg); err != nil {
		term.exit(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "LogBridge starting",
		"version", version.String(),
		"config_file", config.GetConfigPath(),
		"log_output", cfg.Logging.Output)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigHandler := NewSignalHandler(logger)
	defer sigHandler.Stop()

	svc, err := bootstrapService(ctx, cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap service", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	if !cfg.DisableStatusReporter && os.Getenv("LOGBRIDGE_DISABLE_STATUS_REPORTER") != "1" {
		interval := time.Duration(cfg.StatusIntervalSeconds) * time.Second
		go statusReporter(ctx, svc, interval)
	}

	exitCode := 0
	select {
	case sig := <-sigHandler.Signals():
		logger.Info("msg", "Shutdown signal received, starting graceful shutdown",
			"signal", sig)
	case err := <-svc.Fatal():
		// A consumer failure ends the process
		logger.Error("msg", "Log consumer failed, shutting down",
			"error", err)
		term.fail("Fatal: %v\n", err)
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		svc.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		exitCode = 1
	}
	// Sources and the host loop are already drained by Shutdown
	cancel()

	if exitCode != 0 {
		shutdownLogger()
		os.Exit(exitCode)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			// Best effort - can't log the shutdown error
			term.fail("Logger shutdown error: %v\n", err)
		}
	}
}
