package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultSilent(t *testing.T) {
	if Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("default logger should discard every level")
	}
}

func TestSetAndRestore(t *testing.T) {
	orig := Log
	t.Cleanup(func() { Log = orig })

	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	Log.Info("hello", zap.Int("n", 1))
	if logs.Len() != 1 || logs.All()[0].Message != "hello" {
		t.Fatalf("unexpected entries: %v", logs.All())
	}

	Set(nil)
	if Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Set(nil) should restore the silent logger")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
	l, err := New("debug", true)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}
}
