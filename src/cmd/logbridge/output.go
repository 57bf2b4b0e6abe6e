// FILE: logbridge/src/cmd/logbridge/output.go
package main

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// terminal is the daemon's own stdout/stderr. Quiet mode silences
// informational lines only; failures always reach stderr.
type terminal struct {
	quiet atomic.Bool
	out   io.Writer
	err   io.Writer
}

var term = &terminal{out: os.Stdout, err: os.Stderr}

func (t *terminal) info(format string, args ...any) {
	if !t.quiet.Load() {
		fmt.Fprintf(t.out, format, args...)
	}
}

func (t *terminal) fail(format string, args ...any) {
	fmt.Fprintf(t.err, format, args...)
}

// exit reports a startup failure and ends the process with code
func (t *terminal) exit(code int, format string, args ...any) {
	t.fail(format, args...)
	os.Exit(code)
}
