package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedContext(lvl zapcore.Level) (context.Context, *observer.ObservedLogs) {
	core, recorded := observer.New(lvl)
	return contextWithLogger(context.Background(), zap.New(core)), recorded
}

func TestLoggerFromContextFallsBackToGlobal(t *testing.T) {
	resetLoggerForTest()

	//nolint:staticcheck // nil context is part of the contract
	if LoggerFromContext(nil) != Logger() {
		t.Fatal("expected global logger for nil context")
	}
	if LoggerFromContext(context.Background()) != Logger() {
		t.Fatal("expected global logger for empty context")
	}
}

func TestLogHelpersUseContextLogger(t *testing.T) {
	ctx, recorded := observedContext(zapcore.DebugLevel)

	LogDebug(ctx, "debug", zap.String("k", "v"))
	LogInfo(ctx, "info")
	LogWarn(ctx, "warn")
	LogError(ctx, "error", errors.New("boom"))

	entries := recorded.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Fatalf("entry %d: expected level %v, got %v", i, wantLevels[i], e.Level)
		}
	}
	if got := entries[3].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error field boom, got %v", got)
	}
}

func TestLogErrorWithoutError(t *testing.T) {
	ctx, recorded := observedContext(zapcore.InfoLevel)

	LogError(ctx, "no error attached", nil)

	entry := recorded.All()[0]
	if _, ok := entry.ContextMap()["error"]; ok {
		t.Fatal("did not expect error field")
	}
}

func TestWithFieldsAddsFields(t *testing.T) {
	ctx, recorded := observedContext(zapcore.InfoLevel)

	ctx = WithFields(ctx, zap.String("profile_id", "abc"))
	LogInfo(ctx, "with fields")

	if got := recorded.All()[0].ContextMap()["profile_id"]; got != "abc" {
		t.Fatalf("expected profile_id field, got %v", got)
	}
	if WithFields(ctx) != ctx {
		t.Fatal("expected WithFields without fields to return the same context")
	}
}

func TestTraceIDFromContext(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty trace id, got %q", got)
	}
	ctx := contextWithTraceID(context.Background(), "trace-1")
	if got := TraceIDFromContext(ctx); got != "trace-1" {
		t.Fatalf("expected trace-1, got %q", got)
	}
	if contextWithTraceID(ctx, "") != ctx {
		t.Fatal("expected empty trace id to leave context untouched")
	}
}
