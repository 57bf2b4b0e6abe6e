// FILE: logbridge/src/internal/format/json_test.go
package format

import (
	"encoding/json"
	"strings"
	"testing"

	"logbridge/src/internal/config"
	"logbridge/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Format(t *testing.T) {
	logger := newTestLogger()
	rec := fixedRecord(t, `{"time":"2023-01-01T12:00:00Z","level":"INFO","target":"test-app","message":"this is a test"}`)

	t.Run("BasicFormatting", func(t *testing.T) {
		formatter, err := NewJSONFormatter(config.JSONFormatterOptions{}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(output, &result), "Output should be valid JSON")

		assert.Equal(t, "2023-01-01T12:00:00Z", result["timestamp"])
		assert.Equal(t, "INFO", result["level"])
		assert.Equal(t, "test-app", result["target"])
		assert.Equal(t, "this is a test", result["message"])
		_, hasLocation := result["location"]
		assert.False(t, hasLocation)
		assert.True(t, strings.HasSuffix(string(output), "\n"), "Output should end with a newline")
	})

	t.Run("PrettyFormatting", func(t *testing.T) {
		formatter, err := NewJSONFormatter(config.JSONFormatterOptions{Pretty: true}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)

		assert.Contains(t, string(output), `  "level": "INFO"`)
		assert.True(t, strings.HasSuffix(string(output), "\n"))
	})

	t.Run("CustomFieldNames", func(t *testing.T) {
		formatter, err := NewJSONFormatter(config.JSONFormatterOptions{TimestampField: "@timestamp"}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(rec)
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(output, &result))

		_, defaultExists := result["timestamp"]
		assert.False(t, defaultExists)
		assert.Equal(t, "2023-01-01T12:00:00Z", result["@timestamp"])
	})

	t.Run("Location", func(t *testing.T) {
		formatter, err := NewJSONFormatter(config.JSONFormatterOptions{}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(core.NewRecordAt(core.LevelError, "db", "boom", "pool.go", 7))
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(output, &result))
		assert.Equal(t, "pool.go:7", result["location"])
		assert.Equal(t, "ERROR", result["level"])
	})
}
