package logger

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}

func TestWithContextAddsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, Init(Config{Level: "info", Encoding: "json", OutputPaths: []string{path}}))
	t.Cleanup(func() { globalLogger = nil })

	ctx := context.WithValue(context.Background(), PoolKey, "orders")
	ctx = context.WithValue(ctx, RunIDKey, "run-1")
	WithContext(ctx).Info("hello")
	Named("bench").Info("named")
	require.NoError(t, Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)

	assert.Equal(t, "hello", entries[0]["message"])
	assert.Equal(t, "orders", entries[0]["pool"])
	assert.Equal(t, "run-1", entries[0]["run_id"])
	assert.NotContains(t, entries[0], "component")

	assert.Equal(t, "named", entries[1]["message"])
	assert.Equal(t, "bench", entries[1]["component"])
}

func TestGetInitializesDefault(t *testing.T) {
	mu.Lock()
	globalLogger = nil
	mu.Unlock()

	assert.NotNil(t, Get())
	assert.Same(t, Get(), Get())
}
