package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withLevel(t *testing.T, lvl slog.Level) {
	prev := Level.Get()
	Level.Set(lvl)
	t.Cleanup(func() { Level.Set(prev) })
}

func TestLoggerLevels(t *testing.T) {
	withLevel(t, slog.LevelInfo)
	var buf bytes.Buffer
	l := NewWriter(&buf).With("component", "test")

	l.Debugf("hidden %d", 1)
	l.Infof("connected to %s", "tcp://nms:4701")
	l.Notice("reconnecting")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `level=info msg="connected to tcp://nms:4701" component=test`)
	assert.Contains(t, out, "level=notice")
}

func TestLoggerMute(t *testing.T) {
	withLevel(t, slog.LevelDebug)
	var buf bytes.Buffer
	l := NewWriter(&buf)

	l.Mute()
	l.Error("dropped")
	assert.Empty(t, buf.String())

	l.Unmute()
	l.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.With("a", 1).Infof("x")
		l.Mute()
		l.Warning("y")
	})
}

func TestSetByName(t *testing.T) {
	withLevel(t, slog.LevelInfo)
	for name, want := range map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"WARN":   slog.LevelWarn,
		"error":  slog.LevelError,
		"notice": levelNotice,
		"off":    levelDisable,
		"info":   slog.LevelInfo,
	} {
		assert.True(t, Level.SetByName(name), name)
		assert.Equal(t, want, Level.Get(), name)
	}
	assert.False(t, Level.SetByName("verbose"))
	assert.Equal(t, slog.LevelInfo, Level.Get())
}
