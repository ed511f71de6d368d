package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewHonoursLevel(t *testing.T) {
	logger, err := New("development", "warn", "console")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Sync()
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn should be enabled at warn level")
	}
}

func TestNewProductionJSON(t *testing.T) {
	logger, err := New("production", "debug", "json")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be enabled")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("development", "loud", "console"); err == nil {
		t.Fatalf("expected error for bad level")
	}
	if _, err := New("development", "info", "xml"); err == nil {
		t.Fatalf("expected error for bad format")
	}
}
