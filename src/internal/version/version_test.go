// FILE: logbridge/src/internal/version/version_test.go
package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "dev", Short())
	assert.Equal(t, "dev (commit: unknown, built: unknown)", String())
	assert.Equal(t, "LogBridge/dev", ServerName())
	assert.Equal(t, "dev", Info()["version"])
}
