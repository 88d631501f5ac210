// Package logger provides leveled logging on top of zap.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger = zap.NewNop().Sugar()

// Init initializes the default logger with the specified level and format.
// Unknown levels fall back to info; format "text" selects the console encoder,
// anything else emits JSON.
func Init(level string, format string) {
	defaultLogger = New(level, format, zapcore.AddSync(os.Stderr))
}

// New builds a sugared logger writing to ws. Exposed so tests can capture output.
func New(level string, format string, ws zapcore.WriteSyncer) *zap.SugaredLogger {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.ToLower(format) == "text" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, ws, lvl)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// SetDefault swaps the default logger and returns the previous one.
func SetDefault(l *zap.SugaredLogger) *zap.SugaredLogger {
	prev := defaultLogger
	defaultLogger = l
	return prev
}

// Sync flushes buffered entries.
func Sync() {
	_ = defaultLogger.Sync()
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal logs and exits with status 1.
func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatalf(format, args...)
}
