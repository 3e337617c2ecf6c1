package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	// Save original logger to restore later
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	testCases := []struct {
		name       string
		level      LogLevel
		infoLogged bool
		warnLogged bool
	}{
		{name: "Debug level", level: LevelDebug, infoLogged: true, warnLogged: true},
		{name: "Info level", level: LevelInfo, infoLogged: true, warnLogged: true},
		{name: "Warn level", level: LevelWarn, infoLogged: false, warnLogged: true},
		{name: "Error level", level: LevelError, infoLogged: false, warnLogged: false},
		{name: "Invalid level defaults to Warn", level: LogLevel("invalid"), infoLogged: false, warnLogged: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetupLogger(&buf, tc.level)

			if defaultLogger == nil {
				t.Fatal("defaultLogger is nil after setup")
			}

			Info("info message")
			if got := strings.Contains(buf.String(), "info message"); got != tc.infoLogged {
				t.Errorf("info logged = %v, want %v (output: %s)", got, tc.infoLogged, buf.String())
			}

			buf.Reset()
			Warn("warn message")
			if got := strings.Contains(buf.String(), "warn message"); got != tc.warnLogged {
				t.Errorf("warn logged = %v, want %v (output: %s)", got, tc.warnLogged, buf.String())
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelDebug)

	tests := []struct {
		name    string
		logFunc func(string, ...any)
		level   string
		message string
	}{
		{name: "Debug logging", logFunc: Debug, level: "DEBUG", message: "debug message"},
		{name: "Info logging", logFunc: Info, level: "INFO", message: "info message"},
		{name: "Warn logging", logFunc: Warn, level: "WARN", message: "warn message"},
		{name: "Error logging", logFunc: Error, level: "ERROR", message: "error message"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			tc.logFunc(tc.message, "key", "value")

			output := buf.String()
			if !strings.Contains(output, "level="+tc.level) {
				t.Errorf("Expected log level %s in output, got: %s", tc.level, output)
			}
			if !strings.Contains(output, tc.message) {
				t.Errorf("Expected message %q in output, got: %s", tc.message, output)
			}
			if !strings.Contains(output, "key=value") {
				t.Errorf("Expected key-value pair in output, got: %s", output)
			}
		})
	}
}

func TestSetRunID(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelInfo)
	SetRunID("run-123")

	Info("checking tickets")
	if !strings.Contains(buf.String(), "run_id=run-123") {
		t.Errorf("Expected run_id attribute in output, got: %s", buf.String())
	}
	if slog.Default() != defaultLogger {
		t.Error("Expected slog default logger to follow SetRunID")
	}
}

func TestParseLevel(t *testing.T) {
	testCases := map[string]LogLevel{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		" info ":  LevelInfo,
		"error":   LevelError,
		"warn":    LevelWarn,
		"":        LevelWarn,
		"verbose": LevelWarn,
	}

	for input, want := range testCases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMaskSensitive(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty string", input: "", expected: "<not set>"},
		{name: "Short string", input: "abc", expected: "<set>"},
		{name: "Exactly 4 characters", input: "abcd", expected: "<set>"},
		{name: "Long string", input: "abcdefghijklm", expected: "abcd...***"},
		{name: "Token-like string", input: "ATATT3xFfGF0abc", expected: "ATAT...***"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := MaskSensitive(tc.input)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}
