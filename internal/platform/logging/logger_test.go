package logging

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/ols-profile-service/internal/platform/timeutil"
)

// captureOutput redirects stdout while logFn runs and returns everything written.
func captureOutput(t *testing.T, logFn func(*zap.Logger)) string {
	t.Helper()

	resetLoggerForTest()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	defer func() { _ = r.Close() }()

	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	logger := Logger()
	logFn(logger)
	_ = logger.Sync()

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read log output: %v", err)
	}
	return strings.TrimSpace(string(data))
}

func captureEntry(t *testing.T, logFn func(*zap.Logger)) map[string]any {
	t.Helper()
	line := captureOutput(t, logFn)
	if line == "" {
		t.Fatal("expected log output, got empty string")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("failed to unmarshal log JSON %q: %v", line, err)
	}
	return payload
}

func resetLoggerForTest() {
	loggerOnce = sync.Once{}
	baseLogger = nil
	sugarLogger = nil
	loggerErr = nil
	level.SetLevel(zapcore.InfoLevel)
}

func TestLoggerStructuredOutput(t *testing.T) {
	payload := captureEntry(t, func(l *zap.Logger) {
		l.Info("GET /v1/profiles", zap.String("cache", "HIT"))
	})

	if got := payload["severity"]; got != "INFO" {
		t.Fatalf("expected severity INFO, got %v", got)
	}
	if _, exists := payload["level"]; exists {
		t.Fatal("did not expect a level field")
	}
	if got := payload["message"]; got != "GET /v1/profiles" {
		t.Fatalf("unexpected message: %v", got)
	}
	if got := payload["cache"]; got != "HIT" {
		t.Fatalf("expected cache field HIT, got %v", got)
	}
	ts, ok := payload["timestamp"].(string)
	if !ok {
		t.Fatalf("expected timestamp string, got %T", payload["timestamp"])
	}
	if _, err := time.Parse(timeutil.RFC3339Micros, ts); err != nil {
		t.Fatalf("timestamp is not RFC3339Micros: %v", err)
	}
	caller, _ := payload["caller"].(string)
	if !strings.Contains(caller, "logger_test.go") {
		t.Fatalf("expected caller to reference logger_test.go, got %q", caller)
	}
}

func TestEncodeSeverityMapping(t *testing.T) {
	tests := []struct {
		level    zapcore.Level
		expected string
	}{
		{zapcore.DebugLevel, "DEBUG"},
		{zapcore.InfoLevel, "INFO"},
		{zapcore.WarnLevel, "WARNING"},
		{zapcore.ErrorLevel, "ERROR"},
		{zapcore.DPanicLevel, "CRITICAL"},
		{zapcore.PanicLevel, "ALERT"},
		{zapcore.FatalLevel, "EMERGENCY"},
		{zapcore.Level(99), "DEFAULT"},
	}

	for _, tt := range tests {
		enc := zapcore.NewMapObjectEncoder()
		_ = enc.AddArray("v", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
			encodeSeverity(tt.level, ae)
			return nil
		}))
		got, _ := enc.Fields["v"].([]any)
		if len(got) != 1 || got[0] != tt.expected {
			t.Fatalf("encodeSeverity(%v) = %v, want %s", tt.level, got, tt.expected)
		}
	}
}

func TestDebugSuppressedByDefault(t *testing.T) {
	out := captureOutput(t, func(l *zap.Logger) {
		l.Debug("debug message should not appear")
	})
	if strings.Contains(out, "debug message") {
		t.Fatal("debug entries should not be written at the default level")
	}
}

func TestSetLevelEnablesDebug(t *testing.T) {
	out := captureOutput(t, func(l *zap.Logger) {
		if err := SetLevel("debug"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		l.Debug("now visible")
	})
	t.Cleanup(func() { level.SetLevel(zapcore.InfoLevel) })

	if !strings.Contains(out, "now visible") {
		t.Fatalf("expected debug entry after SetLevel, got %q", out)
	}
	if !strings.Contains(out, `"severity":"DEBUG"`) {
		t.Fatalf("expected DEBUG severity, got %q", out)
	}
}

func TestSetLevelNames(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zapcore.InfoLevel) })

	tests := map[string]zapcore.Level{
		"":         zapcore.InfoLevel,
		"info":     zapcore.InfoLevel,
		"WARNING":  zapcore.WarnLevel,
		"warn":     zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"critical": zapcore.DPanicLevel,
		" debug ":  zapcore.DebugLevel,
	}
	for name, want := range tests {
		if err := SetLevel(name); err != nil {
			t.Fatalf("SetLevel(%q) returned error: %v", name, err)
		}
		if got := Level(); got != want {
			t.Fatalf("SetLevel(%q) = %v, want %v", name, got, want)
		}
	}

	if err := SetLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerSingleton(t *testing.T) {
	resetLoggerForTest()

	if Logger() != Logger() {
		t.Fatal("expected Logger() to return the same instance")
	}
	if Sugar().Desugar().Core() != Logger().Core() {
		t.Fatal("expected Logger and Sugar to share the same core")
	}
	if err := Err(); err != nil {
		t.Fatalf("expected nil init error, got %v", err)
	}
}
