package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStandardLogger_Basic(t *testing.T) {
	logger := NewStandardLogger("info", "development")

	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger())
}

func TestStandardLogger_LogLevels(t *testing.T) {
	tests := []struct {
		levelStr string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel}, // Should default to info
	}

	for _, tt := range tests {
		t.Run(tt.levelStr, func(t *testing.T) {
			level := getZapLevel(tt.levelStr)
			assert.Equal(t, tt.expected, level)
		})
	}
}

// Helper to create an observable logger for assertions
func setupTestLogger() (*StandardLogger, *observer.ObservedLogs) {
	core, observedLogs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	return &StandardLogger{logger: logger}, observedLogs
}

func TestStandardLogger_WithService(t *testing.T) {
	logger, logs := setupTestLogger()

	logger.WithService("chatbot-api").Info("test message")

	assert.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "test message", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "chatbot-api", fields["service"])
}

func TestStandardLogger_WithComponent(t *testing.T) {
	logger, logs := setupTestLogger()

	logger.WithComponent("otp_authority").Warn("code expired")

	entry := logs.All()[0]
	assert.Equal(t, "otp_authority", entry.ContextMap()["component"])
}

func TestStandardLogger_WithError(t *testing.T) {
	logger, logs := setupTestLogger()

	logger.WithError(errors.New("boom")).Error("operation failed")

	entry := logs.All()[0]
	assert.Equal(t, "boom", entry.ContextMap()["error"])
}

func TestStandardLogger_StartupShutdown(t *testing.T) {
	logger, logs := setupTestLogger()

	logger.LogStartup("chatbot-api", "1.0.0", 8080)
	logger.LogShutdown("chatbot-api", "signal received")

	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, int64(8080), logs.All()[0].ContextMap()["port"])
	assert.Equal(t, "signal received", logs.All()[1].ContextMap()["reason"])
}
