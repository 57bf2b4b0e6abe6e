// FILE: logbridge/src/internal/sink/http_test.go
package sink

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestHTTPSink(t *testing.T, mutate func(*config.HTTPSinkOptions)) *HTTPSink {
	t.Helper()
	opts := config.Defaults().Sinks.HTTP
	opts.Enabled = true
	opts.Format = config.FormatConfig{Type: "raw"}
	if mutate != nil {
		mutate(&opts)
	}
	h, err := NewHTTPSink(opts, newTestLogger(), rawFormatter(t))
	require.NoError(t, err)
	return h
}

func doRequest(h *HTTPSink, method, path, authHeader string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, &net.TCPAddr{IP: net.ParseIP("10.9.0.1"), Port: 4242}, nil)
	h.requestHandler(ctx)
	return ctx
}

func TestHTTPSink_Broker(t *testing.T) {
	h := newTestHTTPSink(t, nil)
	h.startBroker(context.Background())
	defer h.Stop()

	client, ok := h.admitClient("client-1")
	require.True(t, ok)
	defer h.clientWg.Done()

	require.NoError(t, h.Handle(core.NewRecord(core.LevelInfo, "app", "hello stream")))
	assert.Equal(t, "data: hello stream\n\n", waitEvent(t, client))

	require.NoError(t, h.Handle(core.NewRecord(core.LevelInfo, "app", "line one\nline two")))
	assert.Equal(t, "data: line one\ndata: line two\n\n", waitEvent(t, client))
}

func TestHTTPSink_DropsWhenQueueFull(t *testing.T) {
	h := newTestHTTPSink(t, func(o *config.HTTPSinkOptions) { o.BufferSize = 1 })

	// No broker running, so the queue fills after one record
	require.NoError(t, h.Handle(core.NewRecord(core.LevelInfo, "app", "kept")))
	require.NoError(t, h.Handle(core.NewRecord(core.LevelInfo, "app", "dropped")))

	assert.Equal(t, uint64(1), h.GetStats().Details["queue_dropped"])
}

func TestHTTPSink_Requests(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		h := newTestHTTPSink(t, nil)
		ctx := doRequest(h, "GET", "/status", "")
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

		var status map[string]any
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &status))
		assert.Equal(t, "LogBridge", status["service"])
	})

	t.Run("NotFound", func(t *testing.T) {
		h := newTestHTTPSink(t, nil)
		ctx := doRequest(h, "GET", "/nope", "")
		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	})

	t.Run("Unauthorized", func(t *testing.T) {
		h := newTestHTTPSink(t, func(o *config.HTTPSinkOptions) {
			o.Auth = config.AuthConfig{Type: "bearer", Tokens: []string{"secret"}}
		})

		ctx := doRequest(h, "GET", "/stream", "Bearer wrong")
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		assert.Equal(t, "Bearer", string(ctx.Response.Header.Peek("WWW-Authenticate")))

		// Status stays public
		ctx = doRequest(h, "GET", "/status", "")
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	})

	t.Run("RateLimited", func(t *testing.T) {
		h := newTestHTTPSink(t, func(o *config.HTTPSinkOptions) {
			o.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, BurstSize: 1}
		})

		ctx := doRequest(h, "GET", "/status", "")
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		ctx = doRequest(h, "GET", "/status", "")
		assert.Equal(t, fasthttp.StatusTooManyRequests, ctx.Response.StatusCode())
	})
}

func TestHTTPSink_StreamAfterStop(t *testing.T) {
	h := newTestHTTPSink(t, nil)
	h.startBroker(context.Background())

	client, ok := h.admitClient("early")
	require.True(t, ok)

	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()

	// Stop waits on the admitted client until its writer returns
	select {
	case <-stopped:
		t.Fatal("Stop returned while a client was still streaming")
	case <-time.After(100 * time.Millisecond):
	}
	h.clientWg.Done()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the client finished")
	}

	_, open := <-client
	assert.False(t, open, "client channel is closed on stop")

	ctx := doRequest(h, "GET", "/stream", "")
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.Empty(t, h.clients)
	_, ok = h.admitClient("late")
	assert.False(t, ok)
}
