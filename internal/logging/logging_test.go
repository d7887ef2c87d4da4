package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevel(t *testing.T) {
	if NewLogger("test", false).Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be disabled by default")
	}
	if !NewLogger("test", true).Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be enabled")
	}
}
