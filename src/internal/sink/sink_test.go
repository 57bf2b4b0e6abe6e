// FILE: logbridge/src/internal/sink/sink_test.go
package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"
	"logbridge/src/internal/filter"
	"logbridge/src/internal/format"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func rawFormatter(t *testing.T) format.Formatter {
	t.Helper()
	f, err := format.New(config.FormatConfig{Type: "raw"}, newTestLogger())
	require.NoError(t, err)
	return f
}

// fakeSink records handled messages
type fakeSink struct {
	handled []string
	err     error
	started bool
	stopped bool
	failing bool // Start fails
}

func (f *fakeSink) Handle(rec core.Record) error {
	f.handled = append(f.handled, rec.Message())
	return f.err
}

func (f *fakeSink) Start(ctx context.Context) error {
	if f.failing {
		return errors.New("cannot start")
	}
	f.started = true
	return nil
}

func (f *fakeSink) Stop()               { f.stopped = true }
func (f *fakeSink) GetStats() SinkStats { return SinkStats{Type: "fake"} }

func TestConsoleSink(t *testing.T) {
	newConsole := func(t *testing.T, target string) (*ConsoleSink, *bytes.Buffer, *bytes.Buffer) {
		s, err := NewConsoleSink(config.ConsoleSinkOptions{Target: target}, newTestLogger(), rawFormatter(t))
		require.NoError(t, err)
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		s.stdout, s.stderr = stdout, stderr
		return s, stdout, stderr
	}

	t.Run("Stdout", func(t *testing.T) {
		s, stdout, stderr := newConsole(t, "stdout")
		require.NoError(t, s.Handle(core.NewRecord(core.LevelError, "app", "boom")))
		assert.Equal(t, "boom\n", stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("Split", func(t *testing.T) {
		s, stdout, stderr := newConsole(t, "split")
		require.NoError(t, s.Handle(core.NewRecord(core.LevelInfo, "app", "info line")))
		require.NoError(t, s.Handle(core.NewRecord(core.LevelWarn, "app", "warn line")))
		require.NoError(t, s.Handle(core.NewRecord(core.LevelError, "app", "error line")))
		require.NoError(t, s.Handle(core.NewRecord(core.LevelTrace, "app", "trace line")))

		assert.Equal(t, "info line\ntrace line\n", stdout.String())
		assert.Equal(t, "warn line\nerror line\n", stderr.String())
		assert.Equal(t, uint64(4), s.GetStats().TotalProcessed)
	})

	t.Run("DefaultTarget", func(t *testing.T) {
		s, stdout, _ := newConsole(t, "")
		require.NoError(t, s.Handle(core.NewRecord(core.LevelInfo, "app", "x")))
		assert.Equal(t, "x\n", stdout.String())
	})

	t.Run("InvalidTarget", func(t *testing.T) {
		_, err := NewConsoleSink(config.ConsoleSinkOptions{Target: "printer"}, newTestLogger(), rawFormatter(t))
		assert.Error(t, err)
	})
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(config.FileSinkOptions{
		Directory: dir,
		Name:      "records",
		MaxSizeMB: 1,
	}, newTestLogger(), rawFormatter(t))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Handle(core.NewRecord(core.LevelInfo, "app", "first record")))
	require.NoError(t, s.Handle(core.NewRecord(core.LevelInfo, "app", "second record")))
	s.Stop()

	files, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var content []byte
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		content = append(content, data...)
	}
	assert.Contains(t, string(content), "first record")
	assert.Contains(t, string(content), "second record")
	assert.Equal(t, uint64(2), s.GetStats().TotalProcessed)
}

func TestDispatcher(t *testing.T) {
	logger := newTestLogger()

	t.Run("FanOutWithFilters", func(t *testing.T) {
		all := &fakeSink{}
		errorsOnly := &fakeSink{}
		chain, err := filter.NewChain([]config.FilterConfig{
			{MinLevel: "error"},
		}, logger)
		require.NoError(t, err)

		d := NewDispatcher(logger)
		d.Add("all", all, nil)
		d.Add("errors", errorsOnly, chain)
		assert.Equal(t, 2, d.Len())

		require.NoError(t, d.Handle(core.NewRecord(core.LevelInfo, "app", "fine")))
		require.NoError(t, d.Handle(core.NewRecord(core.LevelError, "app", "broken")))

		assert.Equal(t, []string{"fine", "broken"}, all.handled)
		assert.Equal(t, []string{"broken"}, errorsOnly.handled)

		stats := d.GetStats()
		assert.Equal(t, uint64(2), stats["total_handled"])
		assert.Equal(t, uint64(1), stats["total_filtered"])
	})

	t.Run("FirstErrorAfterAllSinks", func(t *testing.T) {
		bad := &fakeSink{err: errors.New("disk full")}
		worse := &fakeSink{err: errors.New("socket closed")}
		good := &fakeSink{}

		d := NewDispatcher(logger)
		d.Add("bad", bad, nil)
		d.Add("worse", worse, nil)
		d.Add("good", good, nil)

		err := d.Handle(core.NewRecord(core.LevelInfo, "app", "m"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sink bad")
		assert.ErrorIs(t, err, bad.err)
		assert.Equal(t, []string{"m"}, good.handled)
	})

	t.Run("StartRollsBack", func(t *testing.T) {
		first := &fakeSink{}
		broken := &fakeSink{failing: true}

		d := NewDispatcher(logger)
		d.Add("first", first, nil)
		d.Add("broken", broken, nil)

		err := d.Start(context.Background())
		require.Error(t, err)
		assert.True(t, first.started)
		assert.True(t, first.stopped)
		assert.False(t, broken.stopped)
	})

	t.Run("StopAll", func(t *testing.T) {
		a, b := &fakeSink{}, &fakeSink{}
		d := NewDispatcher(logger)
		d.Add("a", a, nil)
		d.Add("b", b, nil)
		require.NoError(t, d.Start(context.Background()))
		d.Stop()
		assert.True(t, a.stopped)
		assert.True(t, b.stopped)
	})
}

func waitEvent(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case ev := <-ch:
		return string(ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}
