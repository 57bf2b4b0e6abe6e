// FILE: logbridge/src/cmd/logbridge/signal.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/log"
)

// Manages OS signals
type SignalHandler struct {
	logger  *log.Logger
	sigChan chan os.Signal
}

func NewSignalHandler(logger *log.Logger) *SignalHandler {
	sh := &SignalHandler{
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(sh.sigChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)

	return sh
}

// Signals delivers termination signals. SIGHUP is logged and ignored,
// the configuration is only read at startup.
func (sh *SignalHandler) Signals() <-chan os.Signal {
	out := make(chan os.Signal, 1)
	go func() {
		for sig := range sh.sigChan {
			if sig == syscall.SIGHUP {
				sh.logger.Warn("msg", "Reload signal ignored, restart to apply configuration changes",
					"signal", sig)
				continue
			}
			out <- sig
			return
		}
	}()
	return out
}

func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
	close(sh.sigChan)
}
