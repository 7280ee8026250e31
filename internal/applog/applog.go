// Package applog is the daemon-wide structured logger. Every component
// gets its own tagged Logger; log lines go to a rotating file and, for
// anything WARN or above (or TRACE when enabled), a colorized mirror on
// stderr so failures are visible without tailing the file.
package applog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	maxFileSize = 5 << 20 // 5 MB
	maxValueLen = 200
	truncSuffix = "…"
)

// Level controls which calls reach the log at all. TRACE lines are
// dropped unless the process was started with --loglevel trace.
type Level int32

const (
	LevelInfo Level = iota
	LevelTrace
)

var (
	mu    sync.Mutex
	file  *os.File
	level atomic.Int32
)

// SetLevel sets the minimum level; call once at startup from main.
func SetLevel(l Level) { level.Store(int32(l)) }

// Init opens the log file for appending, rotating it first if it has
// grown past maxFileSize. Safe to skip — all log calls become no-ops
// (other than the stderr mirror) if Init was never called.
func Init(dir string) error {
	path := filepath.Join(dir, "lotab.log")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if info, err := os.Stat(path); err == nil && info.Size() > maxFileSize {
		os.Rename(path, path+".1")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	mu.Lock()
	file = f
	mu.Unlock()
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
}

// Logger is a component-tagged handle, e.g. applog.New("broker"). The
// component name is the only discriminator a log line carries — no
// runtime identity is required beyond it (spec.md §9).
type Logger struct {
	component string
}

// New returns a Logger tagged with component, rendered as "[component]"
// in every line it writes.
func New(component string) *Logger {
	return &Logger{component: component}
}

var severityStyle = map[string]lipgloss.Style{
	"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	"TRACE": lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

var tagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

// Info logs a structured event line.
//
//	log.Info("ws.connected", "remote", addr)
func (l *Logger) Info(event string, kv ...any) {
	l.emit("INFO", event, nil, kv)
}

// Warn logs a recoverable-but-notable condition (spec §7 kind 3).
func (l *Logger) Warn(event string, kv ...any) {
	l.emit("WARN", event, nil, kv)
}

// Error logs an event together with the error that caused it.
func (l *Logger) Error(event string, err error, kv ...any) {
	l.emit("ERROR", event, err, kv)
}

// Trace logs a verbose diagnostic line, emitted only when the level is
// set to LevelTrace.
func (l *Logger) Trace(event string, kv ...any) {
	if Level(level.Load()) != LevelTrace {
		return
	}
	l.emit("TRACE", event, nil, kv)
}

func (l *Logger) emit(sev, event string, err error, kv []any) {
	line := render(l.component, sev, event, err, kv)

	mu.Lock()
	f := file
	if f != nil {
		file.WriteString(line + "\n")
	}
	mu.Unlock()

	if sev == "WARN" || sev == "ERROR" || (sev == "TRACE" && Level(level.Load()) == LevelTrace) {
		fmt.Fprintln(os.Stderr, colorize(l.component, sev, event, err, kv))
	}
}

func render(component, sev, event string, err error, kv []any) string {
	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte(' ')
	b.WriteString(sev)
	b.WriteByte(' ')
	b.WriteByte('[')
	b.WriteString(component)
	b.WriteString("] ")
	b.WriteString(event)

	if err != nil {
		b.WriteString(" err=")
		b.WriteString(quote(err.Error()))
	}

	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		b.WriteString(quote(fmt.Sprint(kv[i+1])))
	}
	return b.String()
}

// colorize renders "[component] SEV event k=v..." with lipgloss
// color-coding by severity, per spec.md §7's user-visible failure format.
func colorize(component, sev, event string, err error, kv []any) string {
	style, ok := severityStyle[sev]
	if !ok {
		style = lipgloss.NewStyle()
	}
	var b strings.Builder
	b.WriteString(event)
	if err != nil {
		b.WriteString(" err=")
		b.WriteString(quote(err.Error()))
	}
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		b.WriteString(quote(fmt.Sprint(kv[i+1])))
	}
	prefix := tagStyle.Render("["+component+"]") + " " + style.Render(sev)
	return prefix + " " + b.String()
}

func quote(s string) string {
	if len(s) > maxValueLen {
		s = s[:maxValueLen] + truncSuffix
	}
	if strings.ContainsAny(s, " \t\n\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
	}
	return s
}
