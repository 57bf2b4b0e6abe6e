// FILE: logbridge/src/internal/source/source_test.go
package source

import (
	"sync"
	"testing"

	"logbridge/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// recordingEmitter collects emitted records
type recordingEmitter struct {
	mu      sync.Mutex
	records []core.Record
}

func (r *recordingEmitter) Emit(rec core.Record) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func (r *recordingEmitter) snapshot() []core.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Record(nil), r.records...)
}

// byTarget returns emitted records whose target starts with prefix
func (r *recordingEmitter) byTarget(target string) []core.Record {
	var out []core.Record
	for _, rec := range r.snapshot() {
		if rec.Target() == target {
			out = append(out, rec)
		}
	}
	return out
}

func TestDiagnostics(t *testing.T) {
	em := &recordingEmitter{}

	newDiagnostics(em, "", "tcp").emit(core.LevelWarn, "failed %d times", 3)
	newDiagnostics(em, "bridge", "http").emit(core.LevelInfo, "ok")

	recs := em.snapshot()
	require.Len(t, recs, 2)
	assert.Equal(t, "logbridge.source.tcp", recs[0].Target())
	assert.Equal(t, core.LevelWarn, recs[0].Level())
	assert.Equal(t, "failed 3 times", recs[0].Message())
	assert.Equal(t, "bridge.source.http", recs[1].Target())
}

func TestLineDecoder(t *testing.T) {
	t.Run("PartialLines", func(t *testing.T) {
		d := newLineDecoder("tcp")

		recs, invalid, err := d.feed([]byte(`{"message":"one","level":"WARN","target":"proxy"}` + "\n" + `{"mess`))
		require.NoError(t, err)
		assert.Zero(t, invalid)
		require.Len(t, recs, 1)
		assert.Equal(t, "one", recs[0].Message())
		assert.Equal(t, core.LevelWarn, recs[0].Level())
		assert.Equal(t, "proxy", recs[0].Target())

		recs, _, err = d.feed([]byte(`age":"two"}` + "\r\n"))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "two", recs[0].Message())
		assert.Equal(t, "tcp", recs[0].Target(), "missing target gets the default")
		assert.Equal(t, core.LevelInfo, recs[0].Level(), "missing level defaults to INFO")
	})

	t.Run("InvalidLinesSkipped", func(t *testing.T) {
		d := newLineDecoder("tcp")
		recs, invalid, err := d.feed([]byte("not json\n\n{\"message\":\"\"}\n{\"message\":\"ok\"}\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, invalid)
		require.Len(t, recs, 1)
		assert.Equal(t, "ok", recs[0].Message())
	})

	t.Run("LineTooLong", func(t *testing.T) {
		d := newLineDecoder("tcp")
		d.maxLine = 16

		_, _, err := d.feed([]byte(`{"message":"this line never ends`))
		assert.ErrorContains(t, err, "line too long")
	})

	t.Run("BufferLimit", func(t *testing.T) {
		d := newLineDecoder("tcp")
		d.maxBuffer = 8

		_, _, err := d.feed([]byte("0123456789"))
		assert.ErrorContains(t, err, "buffer limit")
	})
}
