// Package logging provides the zap-based structured logger used across the
// service.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StandardLogger wraps a zap logger with service-oriented helpers.
type StandardLogger struct {
	logger *zap.Logger
}

// NewStandardLogger builds a logger for the given level and environment.
// Production gets JSON output with sampling; everything else gets the
// human-readable development encoder.
func NewStandardLogger(level, environment string) *StandardLogger {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(getZapLevel(level))

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger = zap.NewNop()
	}
	return &StandardLogger{logger: logger}
}

// Logger exposes the underlying zap logger.
func (s *StandardLogger) Logger() *zap.Logger {
	return s.logger
}

// WithService returns a logger annotated with a service name.
func (s *StandardLogger) WithService(service string) *StandardLogger {
	return &StandardLogger{logger: s.logger.With(zap.String("service", service))}
}

// WithComponent returns a logger annotated with a component name.
func (s *StandardLogger) WithComponent(component string) *StandardLogger {
	return &StandardLogger{logger: s.logger.With(zap.String("component", component))}
}

// WithError returns a logger annotated with an error field.
func (s *StandardLogger) WithError(err error) *StandardLogger {
	return &StandardLogger{logger: s.logger.With(zap.Error(err))}
}

// WithField returns a logger annotated with an arbitrary field.
func (s *StandardLogger) WithField(key string, value any) *StandardLogger {
	return &StandardLogger{logger: s.logger.With(zap.Any(key, value))}
}

func (s *StandardLogger) Debug(msg string, fields ...zap.Field) { s.logger.Debug(msg, fields...) }
func (s *StandardLogger) Info(msg string, fields ...zap.Field)  { s.logger.Info(msg, fields...) }
func (s *StandardLogger) Warn(msg string, fields ...zap.Field)  { s.logger.Warn(msg, fields...) }
func (s *StandardLogger) Error(msg string, fields ...zap.Field) { s.logger.Error(msg, fields...) }
func (s *StandardLogger) Fatal(msg string, fields ...zap.Field) { s.logger.Fatal(msg, fields...) }

// LogStartup records a standard service startup entry.
func (s *StandardLogger) LogStartup(service, version string, port int) {
	s.logger.Info("service starting",
		zap.String("service", service),
		zap.String("version", version),
		zap.Int("port", port),
	)
}

// LogShutdown records a standard service shutdown entry.
func (s *StandardLogger) LogShutdown(service, reason string) {
	s.logger.Info("service stopping",
		zap.String("service", service),
		zap.String("reason", reason),
	)
}

// Sync flushes buffered log entries.
func (s *StandardLogger) Sync() error {
	return s.logger.Sync()
}

func getZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
