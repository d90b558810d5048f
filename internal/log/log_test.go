package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json"}, &buf).Component("scheduler")

	l.Info("task dispatched", Uint32("when", 7), Err(errors.New("boom")), Bool("periodic", true))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "task dispatched", rec["message"])
	assert.Equal(t, "scheduler", rec["component"])
	assert.Equal(t, float64(7), rec["when"])
	assert.Equal(t, "boom", rec["err"])
	assert.Equal(t, true, rec["periodic"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json"}, &buf)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, l.Enabled(LevelInfo))
	assert.True(t, l.Enabled(LevelError))

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestZeroValueAndNop(t *testing.T) {
	var zero Logger
	assert.NotPanics(t, func() { zero.Error("nothing", Err(nil)) })
	assert.NotPanics(t, func() { Nop().With(String("k", "v")).Info("nothing") })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG", LevelInfo))
	assert.Equal(t, LevelWarn, ParseLevel("warning", LevelInfo))
	assert.Equal(t, LevelInfo, ParseLevel("verbose", LevelInfo))
}
