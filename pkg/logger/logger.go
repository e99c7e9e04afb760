// Package logger is the leveled structured logger used across the client.
// Output goes to stderr: colored via tint on a terminal, logfmt otherwise.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

var (
	isJournal  = isStderrConnectedToJournal()
	isTerminal = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
)

// Logger wraps a slog.Logger with printf-style helpers. A nil *Logger
// discards everything.
type Logger struct {
	sl    *slog.Logger
	muted atomic.Bool
}

// New returns a Logger writing to stderr.
func New() *Logger {
	if isTerminal {
		return newLogger(newTerminalHandler(os.Stderr))
	}
	return newLogger(newTextHandler(os.Stderr))
}

// NewWriter returns a Logger emitting logfmt records to w.
func NewWriter(w io.Writer) *Logger {
	return newLogger(newTextHandler(w))
}

func newLogger(h slog.Handler) *Logger {
	return &Logger{sl: slog.New(withCallDepth(4, h))}
}

// With returns a child logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	c := &Logger{sl: l.sl.With(args...)}
	c.muted.Store(l.muted.Load())
	return c
}

// Mute suppresses all output of l until Unmute.
func (l *Logger) Mute() {
	if l != nil {
		l.muted.Store(true)
	}
}

func (l *Logger) Unmute() {
	if l != nil {
		l.muted.Store(false)
	}
}

func (l *Logger) Error(a ...any)                   { l.log(slog.LevelError, fmt.Sprint(a...)) }
func (l *Logger) Warning(a ...any)                 { l.log(slog.LevelWarn, fmt.Sprint(a...)) }
func (l *Logger) Notice(a ...any)                  { l.log(levelNotice, fmt.Sprint(a...)) }
func (l *Logger) Info(a ...any)                    { l.log(slog.LevelInfo, fmt.Sprint(a...)) }
func (l *Logger) Debug(a ...any)                   { l.log(slog.LevelDebug, fmt.Sprint(a...)) }
func (l *Logger) Errorf(format string, a ...any)   { l.log(slog.LevelError, fmt.Sprintf(format, a...)) }
func (l *Logger) Warningf(format string, a ...any) { l.log(slog.LevelWarn, fmt.Sprintf(format, a...)) }
func (l *Logger) Noticef(format string, a ...any)  { l.log(levelNotice, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)    { l.log(slog.LevelInfo, fmt.Sprintf(format, a...)) }
func (l *Logger) Debugf(format string, a ...any)   { l.log(slog.LevelDebug, fmt.Sprintf(format, a...)) }

func (l *Logger) log(level slog.Level, msg string) {
	if l == nil || l.muted.Load() || !Level.Enabled(level) {
		return
	}
	l.sl.Log(context.Background(), level, msg)
}
