// Package logutil is a small structured-logging shim in the shape of
// go-ethereum's own log package: a slog.Handler that colorizes level labels
// on a terminal (mattn/go-colorable, mattn/go-isatty) and falls back to
// plain text when the writer isn't one.
package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var (
	defaultMu     sync.Mutex
	defaultLogger = New("chainkv")
)

// SetJSON switches the process-wide default Logger (the one Default returns)
// to JSON output. Loggers built with New are not affected, and neither
// binary calls it.
func SetJSON(w io.Writer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = &Logger{inner: slog.New(slog.NewJSONHandler(w, nil))}
}

// Logger wraps *slog.Logger with the go-ethereum-flavored Trace/Debug/Info/
// Warn/Error verbs and a component tag attached at construction.
type Logger struct {
	inner *slog.Logger
}

// New returns a Logger tagged with component, writing to a colorable stderr
// when attached to a terminal.
func New(component string) *Logger {
	out := colorable.NewColorable(os.Stderr)
	isTerm := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	h := &terminalHandler{out: out, color: isTerm}
	l := &Logger{inner: slog.New(h)}
	return l.with("component", component)
}

func (l *Logger) with(kv ...any) *Logger {
	return &Logger{inner: l.inner.With(kv...)}
}

// With returns a child Logger carrying the given key/value pairs on every
// subsequent record, mirroring go-ethereum's log.Logger.New.
func (l *Logger) With(kv ...any) *Logger { return l.with(kv...) }

func (l *Logger) Trace(msg string, kv ...any) { l.inner.Log(context.Background(), levelTrace, msg, kv...) }
func (l *Logger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.inner.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.inner.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.inner.Error(msg, kv...) }

const levelTrace = slog.Level(-8)

// Default returns the process-wide default Logger.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLogger
}

// terminalHandler renders "LEVEL [mm-dd|hh:mm:ss.sss] msg  key=val ..." the
// way go-ethereum's TerminalHandler does, colorizing the level label when
// color is true.
type terminalHandler struct {
	out   io.Writer
	color bool
	mu    sync.Mutex
	attrs []slog.Attr
}

func (h *terminalHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	lvl := levelLabel(r.Level)
	if h.color {
		lvl = levelColor(r.Level).Sprint(lvl)
	}
	fmt.Fprintf(&b, "%-5s [%s] %s", lvl, r.Time.Format("01-02|15:04:05.000"), r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := &terminalHandler{out: h.out, color: h.color}
	n.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return n
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler { return h }

func levelLabel(l slog.Level) string {
	switch {
	case l <= levelTrace:
		return "TRACE"
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func levelColor(l slog.Level) *color.Color {
	switch {
	case l <= levelTrace, l < slog.LevelInfo:
		return color.New(color.FgHiBlack)
	case l < slog.LevelWarn:
		return color.New(color.FgBlue)
	case l < slog.LevelError:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
