package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevel(t *testing.T) {
	if New(false).Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug enabled without verbose")
	}
	if !New(true).Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug disabled with verbose")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := New(false)
	if OrNop(l) != l {
		t.Error("OrNop replaced a non-nil logger")
	}
}
