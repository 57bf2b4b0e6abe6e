// FILE: logbridge/src/internal/limit/limiter_test.go
package limit

import (
	"testing"

	"logbridge/src/internal/config"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func newTestLimiter(t *testing.T, burst, maxIPs int64) *Limiter {
	t.Helper()
	l, err := NewLimiter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		BurstSize:         burst,
		MaxTrackedIPs:     maxIPs,
	}, newTestLogger())
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func TestNewLimiter_Disabled(t *testing.T) {
	l, err := NewLimiter(config.RateLimitConfig{Enabled: false}, newTestLogger())
	require.NoError(t, err)
	assert.Nil(t, l)

	// A nil limiter allows everything
	assert.True(t, l.Allow("10.0.0.1:1234"))
	assert.Equal(t, false, l.GetStats()["enabled"])
}

func TestLimiter_DeniesAfterBurst(t *testing.T) {
	l := newTestLimiter(t, 2, 100)

	assert.True(t, l.Allow("10.0.0.1:1000"))
	assert.True(t, l.Allow("10.0.0.1:1001"))
	assert.False(t, l.Allow("10.0.0.1:1002"), "third request within burst window should be denied")

	// Other IPs have their own bucket
	assert.True(t, l.Allow("10.0.0.2:1000"))

	stats := l.GetStats()
	assert.Equal(t, uint64(4), stats["total_requests"])
	assert.Equal(t, uint64(1), stats["total_denied"])
	assert.Equal(t, 2, stats["tracked_ips"])
}

func TestLimiter_EvictsLeastRecentIP(t *testing.T) {
	l := newTestLimiter(t, 1, 1)

	assert.True(t, l.Allow("10.0.0.1:1"))
	assert.False(t, l.Allow("10.0.0.1:2"))

	// Tracking a second IP evicts the first, which then starts fresh
	assert.True(t, l.Allow("10.0.0.2:1"))
	assert.True(t, l.Allow("10.0.0.1:3"))
}

func TestLimiter_InvalidAddress(t *testing.T) {
	l := newTestLimiter(t, 10, 10)
	assert.False(t, l.Allow("not-an-address"))
	assert.Equal(t, uint64(1), l.GetStats()["total_invalid"])
}

func TestExtractIP(t *testing.T) {
	assert.Equal(t, "192.168.1.5", ExtractIP("192.168.1.5:8080"))
	assert.Equal(t, "192.168.1.5", ExtractIP("192.168.1.5"))
	assert.Equal(t, "::1", ExtractIP("[::1]:9090"))
	assert.Equal(t, "", ExtractIP("localhost:80"))
	assert.Equal(t, "", ExtractIP(""))
}
