// FILE: logbridge/src/internal/host/loop_test.go
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"logbridge/src/internal/bridge"
	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ bridge.Consumer = (*Loop)(nil)
var _ bridge.Validator = (*Loop)(nil)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func startLoop(t *testing.T, h Handler) *Loop {
	t.Helper()
	l := NewLoop(h, newTestLogger())
	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(l.Stop)
	return l
}

func TestLoop_AcceptRunsHandler(t *testing.T) {
	var got []string
	l := startLoop(t, HandlerFunc(func(rec core.Record) error {
		got = append(got, rec.Message())
		return nil
	}))

	require.NoError(t, l.Accept(core.NewRecord(core.LevelInfo, "app", "first")))
	require.NoError(t, l.Accept(core.NewRecord(core.LevelInfo, "app", "second")))

	// Accept returned, so the handler has already run
	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, uint64(2), l.GetStats()["total_handled"])
}

func TestLoop_SingleThreaded(t *testing.T) {
	var inHandler atomic.Int32
	var maxConcurrent atomic.Int32
	var count atomic.Int32

	l := startLoop(t, HandlerFunc(func(rec core.Record) error {
		n := inHandler.Add(1)
		if n > maxConcurrent.Load() {
			maxConcurrent.Store(n)
		}
		time.Sleep(time.Microsecond)
		count.Add(1)
		inHandler.Add(-1)
		return nil
	}))

	var wg sync.WaitGroup
	for p := 0; p < 16; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, l.Accept(core.NewRecord(core.LevelInfo, "app", "x")))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxConcurrent.Load())
	assert.Equal(t, int32(16*50), count.Load())
}

func TestLoop_HandlerErrors(t *testing.T) {
	cause := errors.New("render failed")

	t.Run("ErrorReturnedToCaller", func(t *testing.T) {
		l := startLoop(t, HandlerFunc(func(core.Record) error { return cause }))
		err := l.Accept(core.NewRecord(core.LevelInfo, "app", "x"))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, uint64(1), l.GetStats()["total_failed"])
	})

	t.Run("PanicConvertedToError", func(t *testing.T) {
		l := startLoop(t, HandlerFunc(func(core.Record) error { panic("nil map write") }))
		err := l.Accept(core.NewRecord(core.LevelInfo, "app", "x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil map write")
		assert.Equal(t, uint64(1), l.GetStats()["total_panics"])

		// The loop survives a panicking handler
		assert.NoError(t, l.Validate())
	})
}

func TestLoop_Lifecycle(t *testing.T) {
	t.Run("ValidateBeforeStart", func(t *testing.T) {
		l := NewLoop(HandlerFunc(func(core.Record) error { return nil }), newTestLogger())
		assert.ErrorIs(t, l.Validate(), ErrLoopNotStarted)
	})

	t.Run("NilHandler", func(t *testing.T) {
		l := NewLoop(nil, newTestLogger())
		assert.Error(t, l.Start(context.Background()))
		assert.Error(t, l.Validate())
	})

	t.Run("DoubleStart", func(t *testing.T) {
		l := startLoop(t, HandlerFunc(func(core.Record) error { return nil }))
		assert.Error(t, l.Start(context.Background()))
	})

	t.Run("AcceptAfterStop", func(t *testing.T) {
		l := NewLoop(HandlerFunc(func(core.Record) error { return nil }), newTestLogger())
		require.NoError(t, l.Start(context.Background()))
		l.Stop()

		assert.ErrorIs(t, l.Accept(core.NewRecord(core.LevelInfo, "app", "late")), ErrLoopClosed)
		assert.ErrorIs(t, l.Validate(), ErrLoopClosed)
		assert.NotPanics(t, l.Stop)
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		l := NewLoop(HandlerFunc(func(core.Record) error { return nil }), newTestLogger())
		require.NoError(t, l.Start(ctx))
		cancel()

		assert.Eventually(t, func() bool {
			return errors.Is(l.Validate(), ErrLoopClosed)
		}, time.Second, 5*time.Millisecond)
		assert.ErrorIs(t, l.Accept(core.NewRecord(core.LevelInfo, "app", "late")), ErrLoopClosed)
		l.Stop()
	})

	t.Run("InFlightRecordCompletesOnStop", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		l := NewLoop(HandlerFunc(func(core.Record) error {
			close(entered)
			<-release
			return nil
		}), newTestLogger())
		require.NoError(t, l.Start(context.Background()))

		result := make(chan error, 1)
		go func() { result <- l.Accept(core.NewRecord(core.LevelInfo, "app", "slow")) }()
		<-entered

		stopped := make(chan struct{})
		go func() {
			l.Stop()
			close(stopped)
		}()
		close(release)

		assert.NoError(t, <-result)
		<-stopped
	})
}

func TestLoop_AsBridgeConsumer(t *testing.T) {
	b := bridge.New()
	require.NoError(t, b.Install())

	var got []string
	l := NewLoop(HandlerFunc(func(rec core.Record) error {
		got = append(got, fmt.Sprintf("%s %s %s", rec.Level(), rec.Target(), rec.Message()))
		return nil
	}), newTestLogger())

	// Not started yet: rejected at registration time
	assert.ErrorIs(t, b.Register(l), bridge.ErrInvalidCallback)

	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()
	require.NoError(t, b.Register(l))

	b.Log(core.LevelWarn, "net.proxy", "fallback engaged", "", 0)
	b.Log(core.LevelDebug, "net.proxy", "cache hit", "", 0)
	b.Log(core.LevelTrace, core.DefaultNamespace+".host", "tick", "", 0)

	assert.Equal(t, []string{
		"WARN net.proxy fallback engaged",
		"TRACE " + core.DefaultNamespace + ".host tick",
	}, got)
}
