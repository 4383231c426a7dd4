package pkg

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Component identifies a subsystem for log filtering.
type Component string

// Driver component identifiers.
const (
	ComponentBus      Component = "bus"
	ComponentEndpoint Component = "endpoint"
	ComponentAlloc    Component = "alloc"
	ComponentRegister Component = "register"
	ComponentSim      Component = "sim"
	ComponentCmd      Component = "cmd"
)

// LogFormat specifies the output format for logging.
type LogFormat int

// Log format options.
const (
	LogFormatText LogFormat = iota // Text format (default)
	LogFormatJSON                  // JSON format
)

// DefaultLevel is the threshold the driver starts with. Poll and the
// endpoint paths log at debug and info, so a quiet default keeps them to
// a single level comparison per call.
const DefaultLevel = slog.LevelWarn

var (
	// logLevel gates every driver message before its attributes are built.
	logLevel = new(slog.LevelVar)

	// logger is swapped atomically so Poll may log from interrupt context
	// without taking a lock.
	logger atomic.Pointer[slog.Logger]
)

func init() {
	logLevel.Set(DefaultLevel)
	logger.Store(newLogger(os.Stderr, LogFormatText))
}

func newLogger(w io.Writer, format LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetLogLevel sets the minimum log level for all driver logging.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// GetLogLevel returns the current minimum log level.
func GetLogLevel() slog.Level {
	return logLevel.Level()
}

// Logger returns the logger driver messages are written to.
func Logger() *slog.Logger {
	return logger.Load()
}

// SetLogger replaces the driver logger. A nil logger restores the default
// text logger on os.Stderr. The driver level still applies: messages below
// GetLogLevel are dropped before they reach the logger's handler.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newLogger(os.Stderr, LogFormatText)
	}
	logger.Store(l)
}

// SetLogOutput points the driver logger at w in the given format, using the
// driver level.
func SetLogOutput(w io.Writer, format LogFormat) {
	logger.Store(newLogger(w, format))
}

// SetLogFormat configures the driver logger to write to os.Stderr in the
// given format.
func SetLogFormat(format LogFormat) {
	SetLogOutput(os.Stderr, format)
}

// NewLogger creates a new text logger writing to the given writer. A nil
// opts follows the driver level.
func NewLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: logLevel}
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewJSONLogger creates a new JSON logger writing to the given writer. A nil
// opts follows the driver level.
func NewJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: logLevel}
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Enabled reports whether messages at level would be emitted. Hot paths
// such as Poll check it before formatting log attributes.
func Enabled(level slog.Level) bool {
	return level >= logLevel.Level()
}

func logAt(level slog.Level, component Component, msg string, args []any) {
	if !Enabled(level) {
		return
	}
	attrs := make([]any, 0, len(args)+2)
	attrs = append(attrs, "component", string(component))
	logger.Load().Log(context.Background(), level, msg, append(attrs, args...)...)
}

// LogDebug logs a debug message with the given component.
func LogDebug(component Component, msg string, args ...any) {
	logAt(slog.LevelDebug, component, msg, args)
}

// LogInfo logs an info message with the given component.
func LogInfo(component Component, msg string, args ...any) {
	logAt(slog.LevelInfo, component, msg, args)
}

// LogWarn logs a warning message with the given component.
func LogWarn(component Component, msg string, args ...any) {
	logAt(slog.LevelWarn, component, msg, args)
}

// LogError logs an error message with the given component.
func LogError(component Component, msg string, args ...any) {
	logAt(slog.LevelError, component, msg, args)
}
