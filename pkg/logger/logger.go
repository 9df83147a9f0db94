// pkg/logger/logger.go

package logger

import (
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log *zap.Logger
	// consoleLevel gates the terminal output; the log file always gets debug.
	consoleLevel = zap.NewAtomicLevel()
)

// L returns the process logger, falling back to zap's global.
func L() *zap.Logger {
	if log == nil {
		return zap.L()
	}
	return log
}

// SetLogger installs l as the process logger for zap and otelzap call sites.
func SetLogger(l *zap.Logger) {
	log = l
	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}

// Sync flushes any buffered log entries. Should be called before the application exits.
func Sync() error {
	if log == nil {
		return nil
	}
	err := log.Sync()
	if err != nil && isIgnorableSyncError(err) {
		return nil
	}
	return err
}

// SetLevel changes the console level of the installed logger, e.g. once the
// config file has been read.
func SetLevel(level string) {
	consoleLevel.SetLevel(ParseLogLevel(level))
}

// Level reports the current console level.
func Level() zapcore.Level {
	return consoleLevel.Level()
}

// ParseLogLevel maps LOG_LEVEL values to zap levels, defaulting to info.
func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	case "DPANIC":
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

// stdout/stderr refuse fsync on most terminals
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") ||
		strings.Contains(msg, "inappropriate ioctl") ||
		strings.Contains(msg, "bad file descriptor")
}
