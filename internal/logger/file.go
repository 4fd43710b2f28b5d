package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logFilePermissions restricts the durable log to the invoking user.
const logFilePermissions = 0o600

// FileOptions configures the durable append-only log.
type FileOptions struct {
	// Path is the log file location. Parent directories are created when missing.
	Path string
	// Level is the minimum level written to every output.
	Level zapcore.Level
	// Verbose additionally mirrors every entry to stderr with colors.
	Verbose bool
}

// OpenFile builds a logger that appends plain console-encoded lines to opts.Path.
// Error entries carry a stack trace. The returned close function syncs and closes the file.
func OpenFile(opts FileOptions) (*zap.SugaredLogger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Clean(opts.Path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(zapcore.CapitalLevelEncoder)),
			zapcore.Lock(file),
			opts.Level,
		),
	}

	if opts.Verbose {
		cores = append(cores, newConsoleCore(opts.Level))
	}

	l := zap.New(
		zapcore.NewTee(cores...),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).Sugar()

	closeFn := func() error {
		_ = l.Sync()

		return file.Close()
	}

	return l, closeFn, nil
}
