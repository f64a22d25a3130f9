package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogAdapter_WithNil(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	require.NotNil(t, adapter)
	assert.NotNil(t, adapter.Logger())
}

func TestSlogAdapter_WritesLevels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(NewLogger(&buf, slog.LevelDebug, false))

	adapter.Debug("debug message", "k", 1)
	adapter.Info("info message")
	adapter.Warn("warn message", KeyGoalID, "g1")
	adapter.Error("error message")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "goal_id=g1")
	assert.Contains(t, out, "level=ERROR")
}

func TestSlogAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(NewLogger(&buf, slog.LevelInfo, true)).With("tool", "get_goals")
	adapter.Info("called")

	assert.Contains(t, buf.String(), `"tool":"get_goals"`)
}

func TestDiscardLogger(t *testing.T) {
	// Should not panic
	DiscardLogger().Error("dropped", "key", "value")
}
