package pkg

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	original := GetLogLevel()
	defer SetLogLevel(original)

	tests := []struct {
		name  string
		level slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetLogLevel(tt.level)
			if got := GetLogLevel(); got != tt.level {
				t.Errorf("GetLogLevel() = %v, want %v", got, tt.level)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}

	logger.Info("test message")
	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("log output missing message: %s", buf.String())
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	if logger == nil {
		t.Fatal("NewJSONLogger returned nil")
	}

	logger.Info("test message")
	output := buf.String()
	if !strings.Contains(output, `"msg":"test message"`) {
		t.Errorf("JSON log output missing message: %s", output)
	}
}

func TestLogDebug(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	level := GetLogLevel()
	defer SetLogLevel(level)
	SetLogLevel(slog.LevelDebug)
	SetLogger(NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogDebug(ComponentBus, "debug message", "key", "value")
	output := buf.String()
	if !strings.Contains(output, "debug message") {
		t.Errorf("debug log missing message: %s", output)
	}
	if !strings.Contains(output, "component=bus") {
		t.Errorf("debug log missing component: %s", output)
	}
}

func TestLogInfo(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	level := GetLogLevel()
	defer SetLogLevel(level)
	SetLogLevel(slog.LevelInfo)
	SetLogger(NewLogger(&buf, nil))

	LogInfo(ComponentAlloc, "info message")
	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("info log missing message: %s", output)
	}
	if !strings.Contains(output, "component=alloc") {
		t.Errorf("info log missing component: %s", output)
	}
}

func TestLogWarn(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	SetLogger(NewLogger(&buf, nil))

	LogWarn(ComponentEndpoint, "warn message")
	output := buf.String()
	if !strings.Contains(output, "warn message") {
		t.Errorf("warn log missing message: %s", output)
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	SetLogger(NewLogger(&buf, nil))

	LogError(ComponentRegister, "error message")
	output := buf.String()
	if !strings.Contains(output, "error message") {
		t.Errorf("error log missing message: %s", output)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	customLogger := NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	SetLogger(customLogger)

	LogWarn(ComponentSim, "custom logger test")
	if !strings.Contains(buf.String(), "custom logger test") {
		t.Error("custom logger not used")
	}
}

func TestEnabled(t *testing.T) {
	original := GetLogLevel()
	defer SetLogLevel(original)

	SetLogLevel(slog.LevelWarn)
	if Enabled(slog.LevelDebug) {
		t.Error("Enabled(debug) = true at warn level")
	}
	if !Enabled(slog.LevelError) {
		t.Error("Enabled(error) = false at warn level")
	}

	SetLogLevel(slog.LevelDebug)
	if !Enabled(slog.LevelDebug) {
		t.Error("Enabled(debug) = false at debug level")
	}
}

func TestLevelGatesCustomLogger(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)
	level := GetLogLevel()
	defer SetLogLevel(level)

	SetLogLevel(DefaultLevel)
	SetLogger(NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogDebug(ComponentBus, "poll", "event", "data")
	LogInfo(ComponentEndpoint, "configured")
	if buf.Len() != 0 {
		t.Errorf("messages below the driver level were written: %s", buf.String())
	}

	LogWarn(ComponentBus, "flush timeout")
	if !strings.Contains(buf.String(), "flush timeout") {
		t.Errorf("warn log missing message: %s", buf.String())
	}
}

func TestLogKeepsCallerArgs(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	SetLogger(NewLogger(&buf, nil))
	args := []any{"ep", 1, "len", 64}
	LogError(ComponentEndpoint, "overrun", args...)

	if len(args) != 4 || args[0] != "ep" {
		t.Errorf("caller args modified: %v", args)
	}
	output := buf.String()
	if !strings.Contains(output, "component=endpoint ep=1 len=64") {
		t.Errorf("error log attributes out of order: %s", output)
	}
}

func TestSetLogOutput(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	SetLogOutput(&buf, LogFormatJSON)
	LogWarn(ComponentCmd, "json output")
	if !strings.Contains(buf.String(), `"component":"cmd"`) {
		t.Errorf("JSON output missing component: %s", buf.String())
	}

	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("SetLogger(nil) left no logger")
	}
	buf.Reset()
	LogWarn(ComponentCmd, "after reset")
	if buf.Len() != 0 {
		t.Errorf("reset logger still writes to the old output: %s", buf.String())
	}
}
