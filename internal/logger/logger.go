package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global is the fallback logger for contexts that carry none.
	//nolint:gochecknoglobals // Logger is used all over the project, so it's okay.
	global *zap.SugaredLogger
	// consoleLevel gates the stderr logger; the durable log has its own level.
	//nolint:gochecknoglobals // Shared by every logger built with New.
	consoleLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Commands that never open the durable log still need a logger.
	global = New(consoleLevel)
}

// New returns a sugared logger writing colored console lines to stderr.
// Stdout is reserved for the reporting sink. A nil level means the shared console level.
func New(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = consoleLevel
	}

	return zap.New(newConsoleCore(level), options...).Sugar()
}

//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func newConsoleCore(level zapcore.LevelEnabler) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig(zapcore.CapitalColorLevelEncoder)),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)
}

// encoderConfig is the line layout shared by the console and the durable log.
func encoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	//nolint:exhaustruct // Unset keys are omitted from the output.
	return zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		TimeKey:          "time",
		NameKey:          "logger",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: ", ",
	}
}

// ParseLogLevel converts a flag value to a zap level. Matching ignores case and surrounding spaces.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// SetLevel changes the console level of every logger built by New with a nil level.
func SetLevel(level zapcore.Level) {
	consoleLevel.SetLevel(level)
}

// DebugKV logs a message with key-value pairs at debug level.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info logs at info level through the context logger.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// Infof logs a formatted message at info level.
func Infof(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Infof(format, args...)
}

// InfoKV logs a message with key-value pairs at info level.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// WarnKV logs a message with key-value pairs at warning level.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV logs a message with key-value pairs at error level.
// Loggers from OpenFile attach a stack trace.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
