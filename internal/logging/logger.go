package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar names the level used when none is passed to Initialize.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "RFQEDIT_LOG_LEVEL"

var (
	logger      = zap.NewNop()
	closeOutput = func() {}
)

// Initialize routes log output at level to outputPath ("stderr" when
// empty). An empty level falls back to RFQEDIT_LOG_LEVEL; with neither set
// the logger stays silent. Calling it again releases the previous output.
func Initialize(level, outputPath string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	closeOutput()
	closeOutput = func() {}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if outputPath == "" {
		outputPath = "stderr"
	}
	sink, closeSink, err := zap.Open(outputPath)
	if err != nil {
		return fmt.Errorf("failed to open log output %s: %w", outputPath, err)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), sink, lvl)
	logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	closeOutput = closeSink
	return nil
}

// SetLogger replaces the global logger; nil restores the silent one.
// Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

// LogDropped records an operation whose result was discarded. Failed
// reads and writes never surface as errors in the view, so this is the
// only trace they leave.
func LogDropped(operation string, err error, fields ...zap.Field) {
	logger.Warn("Operation dropped, state unchanged",
		append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)...,
	)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = logger.Sync()
}
