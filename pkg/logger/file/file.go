package file

import (
	"io"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger implements LoggerInstance by writing logfmt lines to a rotating
// log file.
type FileLogger struct {
	logger *log.Logger
	out    io.WriteCloser
}

// FileLoggerParams contains configuration for creating a FileLogger.
// Sizes are in megabytes, MaxAge in days.
type FileLoggerParams struct {
	Path       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Debug      bool
}

// NewFileLogger creates a logger that appends to params.Path and rotates it
// once it grows past MaxSize.
func NewFileLogger(params FileLoggerParams) *FileLogger {
	maxSize := params.MaxSize
	if maxSize <= 0 {
		maxSize = 50
	}
	out := &lumberjack.Logger{
		Filename:   params.Path,
		MaxSize:    maxSize,
		MaxBackups: params.MaxBackups,
		MaxAge:     params.MaxAge,
		Compress:   true,
	}

	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       log.LogfmtFormatter,
	})

	return &FileLogger{logger: logger, out: out}
}

// Close flushes and closes the underlying file.
func (f *FileLogger) Close() error {
	return f.out.Close()
}

func (f *FileLogger) Log(message string, keyvals ...any) {
	f.logger.Print(message, keyvals...)
}

func (f *FileLogger) Info(message string, keyvals ...any) {
	f.logger.Info(message, keyvals...)
}

func (f *FileLogger) Warn(message string, keyvals ...any) {
	f.logger.Warn(message, keyvals...)
}

func (f *FileLogger) Error(message string, keyvals ...any) {
	f.logger.Error(message, keyvals...)
}

func (f *FileLogger) Debug(message string, keyvals ...any) {
	f.logger.Debug(message, keyvals...)
}

func (f *FileLogger) Fatal(message string, keyvals ...any) {
	f.logger.Fatal(message, keyvals...)
}
